// Provider HTTP handlers.
//
// This file exposes the active language-model backend:
//   - GET /provider   (describe the active provider and cache occupancy)
//   - PUT /provider   (switch providers; the old one stays on failure)
//   - GET /ready      (readiness: one health-check against the provider)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-assistant-backend/internal/llm"
	"github.com/tbourn/go-assistant-backend/internal/llm/resilient"
)

// ProviderResponse describes the active backend. The credential is never
// included.
type ProviderResponse struct {
	Name          string   `json:"name" example:"openai"`
	Model         string   `json:"model" example:"gpt-4o-mini"`
	BaseURL       string   `json:"base_url,omitempty"`
	MaxContext    int      `json:"max_context" example:"128000"`
	Capabilities  []string `json:"capabilities"`
	CacheSize     int      `json:"cache_size" example:"12"`
	CacheCapacity int      `json:"cache_capacity" example:"1000"`
}

// SwitchProviderRequest names the backend to switch to.
type SwitchProviderRequest struct {
	Name    string `json:"name" binding:"required" example:"anthropic"`
	Model   string `json:"model" example:"claude-3-5-haiku-latest"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

func (h *Handlers) describeProvider() ProviderResponse {
	info := h.provider.Active()
	d := h.provider.Descriptor()
	size, capacity := h.provider.CacheStats()
	caps := info.Capabilities
	if caps == nil {
		caps = []string{}
	}
	return ProviderResponse{
		Name:          d.Name,
		Model:         info.Model,
		BaseURL:       d.BaseURL,
		MaxContext:    info.MaxContext,
		Capabilities:  caps,
		CacheSize:     size,
		CacheCapacity: capacity,
	}
}

// GetProvider godoc
// @ID          getProvider
// @Summary     Describe the active language-model provider
// @Tags        Provider
// @Produce     json
// @Success     200  {object} handlers.ProviderResponse
// @Router      /provider [get]
func (h *Handlers) GetProvider(c *gin.Context) {
	ok(c, http.StatusOK, h.describeProvider())
}

// SwitchProvider godoc
// @ID          switchProvider
// @Summary     Switch the language-model provider
// @Description Builds and health-checks the new provider before activating it. In-flight calls finish on the old one.
// @Tags        Provider
// @Accept      json
// @Produce     json
// @Param       body  body    handlers.SwitchProviderRequest  true  "Provider descriptor"
// @Success     200  {object} handlers.ProviderResponse
// @Failure     400  {object} handlers.ErrorResponse "Unknown provider or missing settings"
// @Failure     502  {object} handlers.ErrorResponse "Provider failed its health-check"
// @Router      /provider [put]
func (h *Handlers) SwitchProvider(c *gin.Context) {
	var req SwitchProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name required")
		return
	}

	// Settings not given in the request are carried over only when the
	// backend stays the same.
	cur := h.provider.Descriptor()
	d := llm.Descriptor{
		Name:    strings.ToLower(strings.TrimSpace(req.Name)),
		Model:   strings.TrimSpace(req.Model),
		APIKey:  req.APIKey,
		BaseURL: strings.TrimSpace(req.BaseURL),
		Options: cur.Options,
	}
	if d.Name == cur.Name && d.Model == "" {
		d.Model = cur.Model
	}

	err := h.provider.Switch(c.Request.Context(), d)
	switch {
	case err == nil:
		ok(c, http.StatusOK, h.describeProvider())
	case errors.Is(err, resilient.ErrUnhealthy):
		fail(c, http.StatusBadGateway, ErrCodeProviderUnhealthy, err.Error())
	case errors.Is(err, llm.ErrUnknownProvider), errors.Is(err, llm.ErrMissingModel), errors.Is(err, llm.ErrMissingAPIKey):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// Ready godoc
// @ID          ready
// @Summary     Readiness probe
// @Description Reports ready when the active provider answers one minimal request.
// @Tags        Health
// @Produce     json
// @Success     200  {object} map[string]string
// @Failure     503  {object} map[string]string
// @Router      /ready [get]
func (h *Handlers) Ready(c *gin.Context) {
	name := h.provider.Descriptor().Name
	if !h.provider.Healthy(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "provider": name})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "provider": name})
}
