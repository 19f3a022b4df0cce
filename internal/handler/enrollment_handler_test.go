package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/service"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

type enrollmentServiceMock struct {
	submitted *dto.SubmitEnrollmentRequest
	query     dto.EnrollmentQuery
	deleteReq dto.DeleteEnrollmentRequest
	enrollReq *dto.EnrollStudentRequest
	result    dto.OperationResult
	getErr    error
	listAY    string
}

func (m *enrollmentServiceMock) Submit(ctx context.Context, studentID string, req dto.SubmitEnrollmentRequest) dto.OperationResult {
	m.submitted = &req
	return m.result
}

func (m *enrollmentServiceMock) Get(ctx context.Context, studentID string, query dto.EnrollmentQuery) (*service.Resolution, error) {
	m.query = query
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &service.Resolution{StoredEnrollment: models.StoredEnrollment{Path: "students/" + studentID + "/enrollment/AY2526"}, Tier: 4}, nil
}

func (m *enrollmentServiceMock) ListAll(ctx context.Context, academicYear string) ([]models.StoredEnrollment, error) {
	m.listAY = academicYear
	return []models.StoredEnrollment{{Path: "enrollments/u1_AY2526"}}, nil
}

func (m *enrollmentServiceMock) ListEnrolled(ctx context.Context) ([]models.StoredEnrollment, error) {
	return []models.StoredEnrollment{}, nil
}

func (m *enrollmentServiceMock) Enroll(ctx context.Context, studentID string, req dto.EnrollStudentRequest) dto.OperationResult {
	m.enrollReq = &req
	return m.result
}

func (m *enrollmentServiceMock) Revoke(ctx context.Context, studentID string) dto.OperationResult {
	return m.result
}

func (m *enrollmentServiceMock) Delete(ctx context.Context, studentID string, req dto.DeleteEnrollmentRequest) dto.OperationResult {
	m.deleteReq = req
	return m.result
}

func newTestContext(method, target string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestEnrollmentHandlerSubmit(t *testing.T) {
	mock := &enrollmentServiceMock{result: dto.Succeeded(map[string]string{"cohortKey": "AY2526_JHS_7"}, []dto.ReplicaWarning{{Code: "PARTIAL_CONSISTENCY", Replica: "top-level"}})}
	h := NewEnrollmentHandler(mock)
	body, _ := json.Marshal(dto.SubmitEnrollmentRequest{Level: "high-school", GradeLevel: 7})
	c, w := newTestContext(http.MethodPost, "/students/u1/enrollments", body)
	c.Params = gin.Params{{Key: "studentId", Value: "u1"}}

	h.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, mock.submitted)
	assert.Equal(t, 7, mock.submitted.GradeLevel)
	envelope := decodeEnvelope(t, w)
	assert.Len(t, envelope["warnings"], 1)
	assert.Equal(t, "AY2526_JHS_7", envelope["data"].(map[string]interface{})["cohortKey"])
}

func TestEnrollmentHandlerSubmitInvalidBody(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentServiceMock{})
	c, w := newTestContext(http.MethodPost, "/students/u1/enrollments", []byte(`{`))

	h.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEnrollmentHandlerFailedOperation(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentServiceMock{result: dto.Failed(appErrors.Clone(appErrors.ErrValidation, "enrollment closed"))})
	body, _ := json.Marshal(dto.SubmitEnrollmentRequest{Level: "college"})
	c, w := newTestContext(http.MethodPost, "/students/u1/enrollments", body)

	h.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, "enrollment closed", envelope["error"].(map[string]interface{})["message"])
}

func TestEnrollmentHandlerGetBindsQuery(t *testing.T) {
	mock := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(mock)
	c, w := newTestContext(http.MethodGet, "/students/u1/enrollment?ay=AY2425&semester=2", nil)
	c.Params = gin.Params{{Key: "studentId", Value: "u1"}}

	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.EnrollmentQuery{AcademicYear: "AY2425", Semester: "2"}, mock.query)
}

func TestEnrollmentHandlerGetNotFound(t *testing.T) {
	h := NewEnrollmentHandler(&enrollmentServiceMock{getErr: appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")})
	c, w := newTestContext(http.MethodGet, "/students/u1/enrollment", nil)

	h.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEnrollmentHandlerEnrollAcceptsEmptyBody(t *testing.T) {
	mock := &enrollmentServiceMock{result: dto.Succeeded(nil, nil)}
	h := NewEnrollmentHandler(mock)
	c, w := newTestContext(http.MethodPost, "/students/u1/enroll", nil)

	h.Enroll(c)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.enrollReq)
}

func TestEnrollmentHandlerDeleteBindsQuery(t *testing.T) {
	mock := &enrollmentServiceMock{result: dto.Succeeded(service.DeleteResult{Deleted: []string{}}, nil)}
	h := NewEnrollmentHandler(mock)
	c, w := newTestContext(http.MethodDelete, "/students/u1/enrollment?level=college&semester=first-sem", nil)

	h.Delete(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.DeleteEnrollmentRequest{Level: "college", Semester: "first-sem"}, mock.deleteReq)
}

func TestEnrollmentHandlerList(t *testing.T) {
	mock := &enrollmentServiceMock{}
	h := NewEnrollmentHandler(mock)
	c, w := newTestContext(http.MethodGet, "/enrollments?ay=AY2526", nil)

	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AY2526", mock.listAY)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, float64(1), envelope["meta"].(map[string]interface{})["count"])
}
