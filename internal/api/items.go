package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lbonetti/spesa/internal/catalog"
	"github.com/lbonetti/spesa/internal/model"
	"github.com/lbonetti/spesa/internal/store"
	"github.com/lbonetti/spesa/internal/websocket"
)

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	DB  *sql.DB
	Hub *websocket.Hub
}

type createItemRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

// List handles GET /api/available-items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := store.ListItems(r.Context(), h.DB)
	if err != nil {
		slog.Error("listing catalog", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if items == nil {
		items = []model.AvailableItem{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/available-items (admin only). An omitted category
// gets a suggestion from the categorizer instead of staying empty.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := strings.TrimSpace(req.Name)
	category := strings.TrimSpace(req.Category)
	if name == "" {
		jsonError(w, http.StatusBadRequest, "item name required")
		return
	}
	if category == "" {
		category = catalog.Categorize(name)
	}

	item, err := store.CreateItem(r.Context(), h.DB, name, category)
	if err != nil {
		if store.IsUniqueViolation(err) {
			jsonError(w, http.StatusConflict, "item already exists")
			return
		}
		slog.Error("creating catalog item", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.Hub.Broadcast(websocket.EventItemCreated, item.ID)
	jsonResponse(w, http.StatusCreated, item)
}
