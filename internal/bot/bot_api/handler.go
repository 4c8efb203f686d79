package bot_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/youkaichao/WtfTicket/internal/bot"
	"github.com/youkaichao/WtfTicket/internal/logger"
)

// Handler is the webhook adapter: the transport gateway has already
// verified the platform signature and unwrapped the XML envelope, and posts
// one JSON Message per inbound event.
type Handler struct {
	Router *bot.Router
	Logger *logger.Logger
}

func NewHandler(router *bot.Router, log *logger.Logger) *Handler {
	return &Handler{Router: router, Logger: log}
}

func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var msg bot.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid message JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if msg.OpenID == "" {
		http.Error(w, "open_id is required", http.StatusBadRequest)
		return
	}

	reply := h.Router.Route(r.Context(), &msg)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		h.Logger.Error("API", fmt.Sprintf("HandleMessage: failed to encode reply: %v", err))
		return
	}
	h.Logger.LogAPI(r.Method, r.URL.Path, "200", time.Since(start).String())
}
