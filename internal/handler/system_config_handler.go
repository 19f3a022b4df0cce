package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
	"github.com/noah-isme/sma-registrar-api/pkg/response"
)

type systemConfigService interface {
	Get(ctx context.Context) (models.SystemConfig, error)
	Update(ctx context.Context, req dto.UpdateSystemConfigRequest) dto.OperationResult
}

// SystemConfigHandler exposes the active academic period.
type SystemConfigHandler struct {
	service systemConfigService
}

// NewSystemConfigHandler builds a new handler.
func NewSystemConfigHandler(service systemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{service: service}
}

// Get godoc
// @Summary Get system configuration
// @Tags SystemConfig
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /system-config [get]
func (h *SystemConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg)
}

// Update godoc
// @Summary Update system configuration
// @Tags SystemConfig
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSystemConfigRequest true "System configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /system-config [put]
func (h *SystemConfigHandler) Update(c *gin.Context) {
	var req dto.UpdateSystemConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid system config payload"))
		return
	}
	response.Operation(c, http.StatusOK, h.service.Update(c.Request.Context(), req))
}
