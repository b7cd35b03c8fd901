package handler

import (
	"net/http"

	httputil "storagechat/pkg/http"
	"storagechat/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
}

// SessionCounter reports how many chat sessions are live.
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	sessions SessionCounter
	webhook  string
	log      *logger.Logger
}

func NewHealthHandler(sessions SessionCounter, webhookURL string, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		webhook:  webhookURL,
		log:      log,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: h.sessions.Len(),
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Health", "operation", "WriteJSON", "error", err)
	}
}

// Ready only checks local configuration; probing the webhook would count
// as an exchange on the backend side.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if h.webhook == "" {
		if err := httputil.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
		}); err != nil {
			h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
		}
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ready",
		Sessions: h.sessions.Len(),
	}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "Ready", "operation", "WriteJSON", "error", err)
	}
}

func (h *HealthHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
}
