package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "github.com/coder/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/lbonetti/spesa/internal/auth"
	"github.com/lbonetti/spesa/internal/db"
	"github.com/lbonetti/spesa/internal/model"
	"github.com/lbonetti/spesa/internal/store"
	"github.com/lbonetti/spesa/internal/websocket"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret, websocket.NewHub(slog.Default()), "*")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	ctx := context.Background()
	seed := []struct {
		username, password, role, name string
	}{
		{"admin", "admin123", model.RoleAdmin, "Amministratore"},
		{"mario", "mario123", model.RoleEmployee, "Mario Rossi"},
		{"lucia", "lucia123", model.RoleEmployee, "Lucia Bianchi"},
	}
	for _, u := range seed {
		hash, _ := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if _, err := store.CreateUser(ctx, database, u.username, string(hash), u.role, u.name); err != nil {
			t.Fatalf("seeding user %s: %v", u.username, err)
		}
	}

	return server
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login as %s failed: %d", username, resp.StatusCode)
	}

	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("empty token from login")
	}
	return loginResp.Token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doJSON(t *testing.T, req *http.Request, target any) int {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if target != nil {
		json.NewDecoder(resp.Body).Decode(target)
	}
	return resp.StatusCode
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "mario", "password": "mario123"})
	resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var loginResp struct {
		Token string      `json:"token"`
		User  *model.User `json:"user"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.User == nil || loginResp.User.Username != "mario" {
		t.Fatalf("unexpected login user: %+v", loginResp.User)
	}

	// The issued token must pass verify and resolve to the same user.
	req, _ := authRequest("GET", server.URL+"/api/verify", loginResp.Token, nil)
	var verifyResp struct {
		User *model.User `json:"user"`
	}
	if status := doJSON(t, req, &verifyResp); status != http.StatusOK {
		t.Fatalf("verify: expected 200, got %d", status)
	}
	if verifyResp.User.ID != loginResp.User.ID {
		t.Errorf("verify resolved user %d, login issued for %d", verifyResp.User.ID, loginResp.User.ID)
	}
	if verifyResp.User.Role != model.RoleEmployee {
		t.Errorf("expected role employee, got %q", verifyResp.User.Role)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	server := setupTestServer(t)

	cases := []map[string]string{
		{"username": "mario", "password": "wrong"},
		{"username": "nobody", "password": "mario123"},
	}
	for _, c := range cases {
		body, _ := json.Marshal(c)
		resp, _ := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("credentials %v: expected 401, got %d", c, resp.StatusCode)
		}
		var data map[string]string
		json.NewDecoder(resp.Body).Decode(&data)
		resp.Body.Close()
		if data["token"] != "" {
			t.Error("no token may be issued for invalid credentials")
		}
	}

	// Missing fields are a validation error, not an auth failure.
	body, _ := json.Marshal(map[string]string{"username": "mario"})
	resp, _ := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for missing password, got %d", resp.StatusCode)
	}
}

func TestLoginRateLimited(t *testing.T) {
	server := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "mario", "password": "wrong"})
	for i := 0; i < loginRateLimit; i++ {
		resp, err := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("login request %d: %v", i+1, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("request %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	// The attempt past the limit is cut off before credential checking.
	resp, _ := http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 past the limit, got %d", resp.StatusCode)
	}

	// Valid credentials are throttled just the same.
	body, _ = json.Marshal(map[string]string{"username": "mario", "password": "mario123"})
	resp, _ = http.Post(server.URL+"/api/login", "application/json", bytes.NewReader(body))
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429 for valid credentials past the limit, got %d", resp.StatusCode)
	}
}

func TestWebSocketAuth(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "mario", "mario123")

	resp, _ := http.Get(server.URL + "/api/ws")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	resp, _ = http.Get(server.URL + "/api/ws?token=not-a-token")
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for invalid token, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, server.URL+"/api/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("expected upgrade with valid token, got %v", err)
	}
	conn.Close(ws.StatusNormalClosure, "")
}

func TestWebSocketBroadcast(t *testing.T) {
	database := db.NewTestDB(t)
	hub := websocket.NewHub(slog.Default())
	router := NewRouter(database, testJWTSecret, hub, "*")
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	user, err := store.CreateUser(context.Background(), database, "mario", "hash", model.RoleEmployee, "Mario Rossi")
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	token, err := auth.GenerateToken(testJWTSecret, user.ID, user.Username, user.Role)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := ws.Dial(ctx, server.URL+"/api/ws?token="+token, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close(ws.StatusNormalClosure, "")

	// The client registers asynchronously after the upgrade.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timeout waiting for client registration")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(websocket.EventEntryCreated, 7)

	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("reading broadcast: %v", err)
	}
	var msg websocket.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Event != websocket.EventEntryCreated {
		t.Errorf("expected event %s, got %s", websocket.EventEntryCreated, msg.Event)
	}
	if msg.ID != 7 {
		t.Errorf("expected id 7, got %d", msg.ID)
	}
}

func TestUnauthenticatedAccess(t *testing.T) {
	server := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/shopping-list")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := authRequest("GET", server.URL+"/api/shopping-list", "not-a-token", nil)
	if status := doJSON(t, req, nil); status != http.StatusForbidden {
		t.Errorf("expected 403 for invalid token, got %d", status)
	}
}

func TestHealth(t *testing.T) {
	server := setupTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var health map[string]string
	json.NewDecoder(resp.Body).Decode(&health)
	if health["status"] != "OK" || health["database"] != "connected" {
		t.Errorf("unexpected health payload: %v", health)
	}
	if health["timestamp"] == "" {
		t.Error("expected a timestamp")
	}
}

func TestCreateEntryValidation(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "mario", "mario123")

	cases := []map[string]string{
		{"name": "", "quantity": "1kg"},
		{"name": "Pasta", "quantity": ""},
		{"name": "   ", "quantity": "1kg"},
		{"name": "Pasta", "quantity": "   "},
	}
	for _, c := range cases {
		req, _ := authRequest("POST", server.URL+"/api/shopping-list", token, c)
		if status := doJSON(t, req, nil); status != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", c, status)
		}
	}

	// Nothing was persisted.
	req, _ := authRequest("GET", server.URL+"/api/shopping-list", token, nil)
	var entries []map[string]any
	doJSON(t, req, &entries)
	if len(entries) != 0 {
		t.Errorf("expected empty list after rejected creates, got %d entries", len(entries))
	}
}

func TestDuplicateUnpurchasedEntryConflict(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "mario", "mario123")

	body := map[string]string{"name": "Pasta", "quantity": "1kg"}
	req, _ := authRequest("POST", server.URL+"/api/shopping-list", token, body)
	if status := doJSON(t, req, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	// A second open ask for the same item loses with a conflict.
	req, _ = authRequest("POST", server.URL+"/api/shopping-list", token, body)
	if status := doJSON(t, req, nil); status != http.StatusConflict {
		t.Errorf("expected 409 for duplicate open entry, got %d", status)
	}

	req, _ = authRequest("GET", server.URL+"/api/shopping-list", token, nil)
	var entries []map[string]any
	doJSON(t, req, &entries)
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}

func TestTogglePurchasedValidation(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "mario", "mario123")

	// Unknown id.
	req, _ := authRequest("PATCH", server.URL+"/api/shopping-list/9999/purchased", token,
		map[string]bool{"isPurchased": true})
	if status := doJSON(t, req, nil); status != http.StatusNotFound {
		t.Errorf("expected 404 for unknown id, got %d", status)
	}

	// Create one real entry.
	req, _ = authRequest("POST", server.URL+"/api/shopping-list", token,
		map[string]string{"name": "Latte", "quantity": "2l"})
	var entry struct {
		ID int64 `json:"id"`
	}
	doJSON(t, req, &entry)

	// Missing and non-boolean flags are validation errors.
	req, _ = authRequest("PATCH", fmt.Sprintf("%s/api/shopping-list/%d/purchased", server.URL, entry.ID),
		token, map[string]any{})
	if status := doJSON(t, req, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for missing flag, got %d", status)
	}

	req, _ = authRequest("PATCH", fmt.Sprintf("%s/api/shopping-list/%d/purchased", server.URL, entry.ID),
		token, map[string]any{"isPurchased": "yes"})
	if status := doJSON(t, req, nil); status != http.StatusBadRequest {
		t.Errorf("expected 400 for non-boolean flag, got %d", status)
	}

	// A genuine boolean works and echoes the new state.
	req, _ = authRequest("PATCH", fmt.Sprintf("%s/api/shopping-list/%d/purchased", server.URL, entry.ID),
		token, map[string]bool{"isPurchased": true})
	var patchResp struct {
		IsPurchased bool `json:"isPurchased"`
	}
	if status := doJSON(t, req, &patchResp); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if !patchResp.IsPurchased {
		t.Error("expected isPurchased true in response")
	}
}

func TestDeleteEntryTwice(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "lucia", "lucia123")

	req, _ := authRequest("POST", server.URL+"/api/shopping-list", token,
		map[string]string{"name": "Burro", "quantity": "250g"})
	var entry struct {
		ID int64 `json:"id"`
	}
	if status := doJSON(t, req, &entry); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	url := fmt.Sprintf("%s/api/shopping-list/%d", server.URL, entry.ID)
	req, _ = authRequest("DELETE", url, token, nil)
	if status := doJSON(t, req, nil); status != http.StatusOK {
		t.Errorf("first delete: expected 200, got %d", status)
	}

	req, _ = authRequest("DELETE", url, token, nil)
	if status := doJSON(t, req, nil); status != http.StatusNotFound {
		t.Errorf("second delete: expected 404, got %d", status)
	}
}

func TestCatalogAdminOnly(t *testing.T) {
	server := setupTestServer(t)
	employeeToken := login(t, server, "mario", "mario123")
	adminToken := login(t, server, "admin", "admin123")

	// Employees read but cannot write.
	req, _ := authRequest("GET", server.URL+"/api/available-items", employeeToken, nil)
	if status := doJSON(t, req, nil); status != http.StatusOK {
		t.Errorf("employee list: expected 200, got %d", status)
	}

	req, _ = authRequest("POST", server.URL+"/api/available-items", employeeToken,
		map[string]string{"name": "Zucchine", "category": "verdure"})
	if status := doJSON(t, req, nil); status != http.StatusForbidden {
		t.Errorf("employee create: expected 403, got %d", status)
	}

	req, _ = authRequest("GET", server.URL+"/api/available-items", adminToken, nil)
	var items []model.AvailableItem
	doJSON(t, req, &items)
	if len(items) != 0 {
		t.Errorf("expected no row from rejected create, got %d items", len(items))
	}

	// Admin create succeeds; a duplicate name conflicts.
	req, _ = authRequest("POST", server.URL+"/api/available-items", adminToken,
		map[string]string{"name": "Zucchine", "category": "verdure"})
	if status := doJSON(t, req, nil); status != http.StatusCreated {
		t.Fatalf("admin create: expected 201, got %d", status)
	}

	req, _ = authRequest("POST", server.URL+"/api/available-items", adminToken,
		map[string]string{"name": "Zucchine"})
	if status := doJSON(t, req, nil); status != http.StatusConflict {
		t.Errorf("duplicate create: expected 409, got %d", status)
	}
}

func TestCatalogCategorySuggestion(t *testing.T) {
	server := setupTestServer(t)
	adminToken := login(t, server, "admin", "admin123")

	req, _ := authRequest("POST", server.URL+"/api/available-items", adminToken,
		map[string]string{"name": "Parmigiano Reggiano"})
	var item model.AvailableItem
	if status := doJSON(t, req, &item); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if item.Category != "latticini" {
		t.Errorf("expected suggested category 'latticini', got %q", item.Category)
	}
}

func TestShoppingListFlow(t *testing.T) {
	server := setupTestServer(t)
	token := login(t, server, "mario", "mario123")

	// Fresh store: empty list.
	req, _ := authRequest("GET", server.URL+"/api/shopping-list", token, nil)
	var entries []map[string]any
	if status := doJSON(t, req, &entries); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty list, got %d entries", len(entries))
	}

	// Add an entry; it carries the adder's display name.
	req, _ = authRequest("POST", server.URL+"/api/shopping-list", token,
		map[string]string{"name": "Pasta", "quantity": "1kg"})
	var created map[string]any
	if status := doJSON(t, req, &created); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	if created["addedBy"] != "Mario Rossi" {
		t.Errorf("expected addedBy 'Mario Rossi', got %v", created["addedBy"])
	}
	if created["isPurchased"] != false {
		t.Errorf("expected isPurchased false, got %v", created["isPurchased"])
	}
	if created["timestamp"] == "" {
		t.Error("expected a rendered timestamp")
	}

	// Mark it purchased.
	id := int64(created["id"].(float64))
	req, _ = authRequest("PATCH", fmt.Sprintf("%s/api/shopping-list/%d/purchased", server.URL, id),
		token, map[string]bool{"isPurchased": true})
	var patchResp map[string]any
	if status := doJSON(t, req, &patchResp); status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if patchResp["isPurchased"] != true {
		t.Errorf("expected isPurchased true, got %v", patchResp["isPurchased"])
	}

	// A still-unpurchased entry sorts before the purchased one.
	req, _ = authRequest("POST", server.URL+"/api/shopping-list", token,
		map[string]string{"name": "Latte", "quantity": "2l"})
	if status := doJSON(t, req, nil); status != http.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}

	req, _ = authRequest("GET", server.URL+"/api/shopping-list", token, nil)
	doJSON(t, req, &entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0]["name"] != "Latte" || entries[1]["name"] != "Pasta" {
		t.Errorf("expected unpurchased first, got %v then %v", entries[0]["name"], entries[1]["name"])
	}
	if entries[1]["isPurchased"] != true {
		t.Error("expected purchased entry to sort last")
	}
}
