package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/service"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
	"github.com/noah-isme/sma-registrar-api/pkg/response"
)

type enrollmentService interface {
	Submit(ctx context.Context, studentID string, req dto.SubmitEnrollmentRequest) dto.OperationResult
	Get(ctx context.Context, studentID string, query dto.EnrollmentQuery) (*service.Resolution, error)
	ListAll(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error)
	ListEnrolled(ctx context.Context) ([]models.StoredEnrollment, error)
	Enroll(ctx context.Context, studentID string, req dto.EnrollStudentRequest) dto.OperationResult
	Revoke(ctx context.Context, studentID string) dto.OperationResult
	Delete(ctx context.Context, studentID string, req dto.DeleteEnrollmentRequest) dto.OperationResult
}

// EnrollmentHandler exposes enrollment lifecycle endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// Submit godoc
// @Summary Submit an enrollment application
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.SubmitEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /students/{studentId}/enrollments [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	var req dto.SubmitEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	response.Operation(c, http.StatusCreated, h.enrollments.Submit(c.Request.Context(), c.Param("studentId"), req))
}

// Get godoc
// @Summary Resolve a student's enrollment
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param ay query string false "Academic year code, e.g. AY2526"
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{studentId}/enrollment [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	var query dto.EnrollmentQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	res, err := h.enrollments.Get(c.Request.Context(), c.Param("studentId"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res)
}

// List godoc
// @Summary List top-level enrollments
// @Tags Enrollments
// @Produce json
// @Param ay query string false "Academic year code"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	records, err := h.enrollments.ListAll(c.Request.Context(), c.Query("ay"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// ListEnrolled godoc
// @Summary List enrolled students
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/enrolled [get]
func (h *EnrollmentHandler) ListEnrolled(c *gin.Context) {
	records, err := h.enrollments.ListEnrolled(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, map[string]interface{}{"count": len(records)})
}

// Enroll godoc
// @Summary Enroll a student with a pending application
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param studentId path string true "Student ID"
// @Param payload body dto.EnrollStudentRequest false "Enrollment details"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var req dto.EnrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	response.Operation(c, http.StatusOK, h.enrollments.Enroll(c.Request.Context(), c.Param("studentId"), req))
}

// Revoke godoc
// @Summary Revoke an enrollment back to pending
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/revoke [post]
func (h *EnrollmentHandler) Revoke(c *gin.Context) {
	response.Operation(c, http.StatusOK, h.enrollments.Revoke(c.Request.Context(), c.Param("studentId")))
}

// Delete godoc
// @Summary Delete a student's enrollment
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Param level query string false "college or high-school"
// @Param semester query string false "Semester"
// @Success 200 {object} response.Envelope
// @Router /students/{studentId}/enrollment [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	var req dto.DeleteEnrollmentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}
	response.Operation(c, http.StatusOK, h.enrollments.Delete(c.Request.Context(), c.Param("studentId"), req))
}
