package controllers

import (
	"encoding/json"
	"net/http"
	"time"
)

type HealthController struct {
	provider  string
	aiEnabled bool
	now       func() time.Time
}

func NewHealthController(provider string, aiEnabled bool) *HealthController {
	return &HealthController{provider: provider, aiEnabled: aiEnabled, now: time.Now}
}

type healthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	AIProvider string `json:"ai_provider"`
	AIEnabled  bool   `json:"ai_enabled"`
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(healthResponse{
		Status:     "healthy",
		Timestamp:  h.now().UTC().Format(time.RFC3339),
		AIProvider: h.provider,
		AIEnabled:  h.aiEnabled,
	})
}
