package handlers

import (
	"net/http"

	"github.com/architeacher/gateways/internal/config"
)

// ConfigHandler dumps the effective configuration. Secret fields are tagged
// json:"-" and never leave the process.
type ConfigHandler struct {
	cfg *config.ServiceConfig
}

func NewConfigHandler(cfg *config.ServiceConfig) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

func (h *ConfigHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.cfg)
}
