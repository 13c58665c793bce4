package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/lbonetti/spesa/internal/api"
	"github.com/lbonetti/spesa/internal/config"
	"github.com/lbonetti/spesa/internal/db"
	"github.com/lbonetti/spesa/internal/logging"
	"github.com/lbonetti/spesa/internal/model"
	"github.com/lbonetti/spesa/internal/store"
	"github.com/lbonetti/spesa/internal/websocket"
	"github.com/lbonetti/spesa/web"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: spesa <init|serve>")
		os.Exit(1)
	}

	cfg := config.FromEnv()
	logger := logging.Setup(cfg.LogLevel)

	switch os.Args[1] {
	case "init":
		cmdInit(cfg)
	case "serve":
		cmdServe(cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\nUsage: spesa <init|serve>\n", os.Args[1])
		os.Exit(1)
	}
}

func cmdInit(cfg config.Config) {
	if _, err := os.Stat(cfg.DBPath); err == nil {
		fmt.Fprintf(os.Stderr, "Error: database file %s already exists\n", cfg.DBPath)
		os.Exit(1)
	}

	database, err := initDatabase(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	database.Close()

	fmt.Printf("Database created: %s\n", cfg.DBPath)
	printSeedCredentials()
}

func cmdServe(cfg config.Config, logger *slog.Logger) {
	if cfg.JWTSecret == "" {
		secret, err := generateSecret()
		if err != nil {
			logger.Error("generating JWT secret", "error", err)
			os.Exit(1)
		}
		cfg.JWTSecret = secret
		logger.Warn("JWT secret auto-generated, tokens will be invalidated on restart")
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Idempotent; picks up new migrations on upgrade.
	if err := db.Migrate(database); err != nil {
		logger.Error("migrating database", "error", err)
		os.Exit(1)
	}

	// Auto-seed on first run. Accounts are the marker: a store without
	// users is unusable, since there is no self-registration.
	n, err := store.CountUsers(context.Background(), database)
	if err != nil {
		logger.Error("counting users", "error", err)
		os.Exit(1)
	}
	if n == 0 {
		if err := seedDatabase(context.Background(), database); err != nil {
			logger.Error("seeding database", "error", err)
			os.Exit(1)
		}
		printSeedCredentials()
	}

	hub := websocket.NewHub(logger)
	apiRouter := api.NewRouter(database, cfg.JWTSecret, hub, cfg.CORSOrigin)

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("/", http.FileServer(http.FS(web.StaticFS())))

	handler := api.LoggingMiddleware(api.CORSMiddleware(cfg.CORSOrigin)(mux))

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// seedUsers are the three fixed demo accounts. Passwords are documented on
// the login page for operator convenience; hashes are generated at init time.
var seedUsers = []struct {
	username, password, role, name string
}{
	{"admin", "admin123", model.RoleAdmin, "Amministratore"},
	{"mario", "mario123", model.RoleEmployee, "Mario Rossi"},
	{"lucia", "lucia123", model.RoleEmployee, "Lucia Bianchi"},
}

// seedItems is the starting catalog.
var seedItems = []struct {
	name, category string
}{
	{"Pomodori", "verdure"},
	{"Mozzarella", "latticini"},
	{"Basilico", "erbe"},
	{"Olio d'oliva", "condimenti"},
	{"Pasta", "cereali"},
	{"Carne", "proteine"},
	{"Pesce", "proteine"},
	{"Verdure", "verdure"},
	{"Pane", "cereali"},
	{"Burro", "latticini"},
	{"Latte", "latticini"},
	{"Uova", "proteine"},
	{"Formaggio", "latticini"},
	{"Prosciutto", "salumi"},
}

// initDatabase creates a new database, runs migrations, and seeds the demo
// accounts and catalog.
func initDatabase(path string) (*sql.DB, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	fail := func(err error) (*sql.DB, error) {
		database.Close()
		os.Remove(path)
		return nil, err
	}

	if err := db.Migrate(database); err != nil {
		return fail(fmt.Errorf("running migrations: %w", err))
	}

	if err := seedDatabase(context.Background(), database); err != nil {
		return fail(err)
	}

	return database, nil
}

// seedDatabase provisions the demo accounts and the starting catalog.
func seedDatabase(ctx context.Context, database *sql.DB) error {
	for _, u := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", u.username, err)
		}
		if _, err := store.CreateUser(ctx, database, u.username, string(hash), u.role, u.name); err != nil {
			return fmt.Errorf("creating user %s: %w", u.username, err)
		}
	}

	for _, item := range seedItems {
		if _, err := store.CreateItem(ctx, database, item.name, item.category); err != nil {
			return fmt.Errorf("creating catalog item %s: %w", item.name, err)
		}
	}

	return nil
}

func printSeedCredentials() {
	fmt.Println("Schema initialized and demo accounts seeded:")
	for _, u := range seedUsers {
		fmt.Printf("  %-10s %s / %s\n", u.role+":", u.username, u.password)
	}
}

// generateSecret creates a random token signing key.
func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
