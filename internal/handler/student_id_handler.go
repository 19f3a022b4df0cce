package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
	"github.com/noah-isme/sma-registrar-api/pkg/response"
)

type studentIDService interface {
	Latest(ctx context.Context) (dto.LatestStudentIDResponse, error)
	Update(ctx context.Context, req dto.UpdateLatestStudentIDRequest) dto.OperationResult
}

// StudentIDHandler exposes the school student id counter.
type StudentIDHandler struct {
	service studentIDService
}

// NewStudentIDHandler constructs StudentIDHandler.
func NewStudentIDHandler(service studentIDService) *StudentIDHandler {
	return &StudentIDHandler{service: service}
}

// Latest godoc
// @Summary Get the latest issued student id
// @Tags StudentIDs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student-ids/latest [get]
func (h *StudentIDHandler) Latest(c *gin.Context) {
	latest, err := h.service.Latest(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, latest)
}

// Update godoc
// @Summary Record the latest issued student id
// @Tags StudentIDs
// @Accept json
// @Produce json
// @Param payload body dto.UpdateLatestStudentIDRequest true "Latest id"
// @Success 200 {object} response.Envelope
// @Router /student-ids/latest [put]
func (h *StudentIDHandler) Update(c *gin.Context) {
	var req dto.UpdateLatestStudentIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	response.Operation(c, http.StatusOK, h.service.Update(c.Request.Context(), req))
}
