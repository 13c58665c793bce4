package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lbonetti/spesa/internal/model"
	"github.com/lbonetti/spesa/internal/store"
	"github.com/lbonetti/spesa/internal/websocket"
)

// EntriesHandler handles shopping-list endpoints.
type EntriesHandler struct {
	DB  *sql.DB
	Hub *websocket.Hub
}

type createEntryRequest struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes"`
}

type setPurchasedRequest struct {
	IsPurchased *bool `json:"isPurchased"`
}

// entryResponse is the wire shape of a list entry. The timestamp is rendered
// at read time, it is never stored pre-formatted.
type entryResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity"`
	AddedBy     string `json:"addedBy"`
	Timestamp   string `json:"timestamp"`
	Notes       string `json:"notes"`
	IsPurchased bool   `json:"isPurchased"`
}

// timestampLayout renders creation times the way the Italian locale writes
// them, e.g. "29/08/2026, 14:03:05".
const timestampLayout = "02/01/2006, 15:04:05"

func toEntryResponse(e model.Entry) entryResponse {
	return entryResponse{
		ID:          e.ID,
		Name:        e.Name,
		Quantity:    e.Quantity,
		AddedBy:     e.AddedBy,
		Timestamp:   e.CreatedAt.Format(timestampLayout),
		Notes:       e.Notes,
		IsPurchased: e.IsPurchased,
	}
}

// List handles GET /api/shopping-list.
func (h *EntriesHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := store.ListEntries(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing entries", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, toEntryResponse(e))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// Create handles POST /api/shopping-list.
func (h *EntriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	quantity := strings.TrimSpace(req.Quantity)
	notes := strings.TrimSpace(req.Notes)
	if name == "" || quantity == "" {
		jsonError(w, http.StatusBadRequest, "name and quantity required")
		return
	}

	entry, err := store.CreateEntry(r.Context(), h.DB, name, quantity, notes, user.ID)
	if err != nil {
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "an unpurchased entry with this name already exists")
			return
		}
		slog.Error("creating entry", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Hub.Broadcast(websocket.EventEntryCreated, entry.ID)
	jsonResponse(w, http.StatusCreated, toEntryResponse(*entry))
}

// Delete handles DELETE /api/shopping-list/{id}.
func (h *EntriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	deleted, err := store.DeleteEntry(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("deleting entry", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "entry not found")
		return
	}

	h.Hub.Broadcast(websocket.EventEntryDeleted, id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "entry removed"})
}

// SetPurchased handles PATCH /api/shopping-list/{id}/purchased.
func (h *EntriesHandler) SetPurchased(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req setPurchasedRequest
	if err := decodeJSON(r, &req); err != nil || req.IsPurchased == nil {
		jsonError(w, http.StatusBadRequest, "isPurchased must be a boolean")
		return
	}

	found, err := store.SetEntryPurchased(r.Context(), h.DB, id, *req.IsPurchased)
	if err != nil {
		// Un-purchasing can collide with an open entry of the same name.
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "an unpurchased entry with this name already exists")
			return
		}
		slog.Error("updating entry", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !found {
		jsonError(w, http.StatusNotFound, "entry not found")
		return
	}

	h.Hub.Broadcast(websocket.EventEntryPurchased, id)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message":     "entry updated",
		"isPurchased": *req.IsPurchased,
	})
}
