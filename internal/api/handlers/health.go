package handlers

import (
	"net/http"
	"time"

	"github.com/obiorah-dev/bankrecon/internal/api/middleware"
)

// HealthHandler reports process liveness and which optional integrations
// are wired.
type HealthHandler struct {
	aiModel string // empty when AI extraction/classification is disabled
}

func NewHealthHandler(aiModel string) *HealthHandler {
	return &HealthHandler{aiModel: aiModel}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ai := "disabled"
	if h.aiModel != "" {
		ai = h.aiModel
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
		"ai":     ai,
	})
}
