package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/pkg/response"
)

type sectionAssignmentService interface {
	Assign(ctx context.Context, studentID, sectionID string) dto.OperationResult
	Unassign(ctx context.Context, studentID, sectionID string) dto.OperationResult
}

// SectionHandler manages section rosters.
type SectionHandler struct {
	sections sectionAssignmentService
}

// NewSectionHandler constructs SectionHandler.
func NewSectionHandler(sections sectionAssignmentService) *SectionHandler {
	return &SectionHandler{sections: sections}
}

// Assign godoc
// @Summary Assign a student to a section
// @Tags Sections
// @Produce json
// @Param sectionId path string true "Section ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /sections/{sectionId}/students/{studentId} [put]
func (h *SectionHandler) Assign(c *gin.Context) {
	response.Operation(c, http.StatusOK, h.sections.Assign(c.Request.Context(), c.Param("studentId"), c.Param("sectionId")))
}

// Unassign godoc
// @Summary Remove a student from a section
// @Tags Sections
// @Produce json
// @Param sectionId path string true "Section ID"
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{sectionId}/students/{studentId} [delete]
func (h *SectionHandler) Unassign(c *gin.Context) {
	response.Operation(c, http.StatusOK, h.sections.Unassign(c.Request.Context(), c.Param("studentId"), c.Param("sectionId")))
}
