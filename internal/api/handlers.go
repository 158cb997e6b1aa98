package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"boxer-arena/internal/game"
)

const (
	// DefaultEventLimit is how many events /api/events returns without ?limit
	DefaultEventLimit = 50

	// MaxEventLimit caps ?limit
	MaxEventLimit = 500

	// maxIntentBody caps an intent request body
	maxIntentBody = 1024
)

// intentRequest is the JSON body of POST /api/intent and of websocket
// intent messages.
type intentRequest struct {
	Intent   string `json:"intent"`
	Category string `json:"category,omitempty"`
}

// toIntent converts the request to an engine intent.
func (req intentRequest) toIntent() (game.Intent, error) {
	if req.Intent == "" {
		return game.Intent{}, errors.New("intent is required")
	}
	wire := req.Intent
	if req.Category != "" {
		wire += ":" + req.Category
	}
	return game.ParseIntent(wire)
}

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.GetSnapshot())
}

func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		writeError(w, "Frame rendering disabled", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.EncodePNG(&buf, h.engine.GetSnapshot()); err != nil {
		log.Printf("❌ Frame render failed: %v", err)
		writeError(w, "Render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	limit := DefaultEventLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > MaxEventLimit {
		limit = MaxEventLimit
	}

	events := h.engine.RecentEvents(limit)
	if events == nil {
		events = []game.LogRecord{}
	}
	writeJSON(w, events)
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	// Lock-free snapshot, no engine mutex on the poll path
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"sequence":      snap.Sequence,
		"tick":          snap.Tick,
		"phase":         snap.Phase,
		"score":         snap.Score,
		"enemiesKilled": snap.EnemiesKilled,
		"eventLog":      h.engine.GetEventLogStats(),
	})
}

func (h *routerHandlers) handlePostIntent(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.AllowIntent(GetClientIP(r)) {
		RecordIntent("throttled")
		w.Header().Set("Retry-After", "1")
		writeError(w, "Too many intents", http.StatusTooManyRequests)
		return
	}

	var req intentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIntentBody)).Decode(&req); err != nil {
		RecordIntent("invalid")
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	in, err := req.toIntent()
	if err != nil {
		RecordIntent("invalid")
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !h.engine.SubmitIntent(in) {
		RecordIntent("dropped")
		writeError(w, "Intent queue full", http.StatusServiceUnavailable)
		return
	}
	RecordIntent("accepted")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"accepted": true,
		"intent":   in.String(),
	})
}

func (h *routerHandlers) handleGetShop(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.GetSnapshot()
	writeJSON(w, map[string]interface{}{
		"open":   snap.ShopOpen,
		"coins":  snap.Coins,
		"prices": snap.Prices(),
	})
}

func (h *routerHandlers) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Balance())
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
