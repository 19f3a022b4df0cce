package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/dto"
	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/internal/service"
)

type systemConfigServiceMock struct {
	updated *dto.UpdateSystemConfigRequest
}

func (m *systemConfigServiceMock) Get(ctx context.Context) (models.SystemConfig, error) {
	return models.SystemConfig{AcademicYear: "AY2526", Semester: models.SemesterFirst}, nil
}

func (m *systemConfigServiceMock) Update(ctx context.Context, req dto.UpdateSystemConfigRequest) dto.OperationResult {
	m.updated = &req
	return dto.Succeeded(models.SystemConfig{AcademicYear: req.AcademicYear}, nil)
}

type sectionServiceMock struct {
	studentID, sectionID string
}

func (m *sectionServiceMock) Assign(ctx context.Context, studentID, sectionID string) dto.OperationResult {
	m.studentID, m.sectionID = studentID, sectionID
	return dto.Succeeded(nil, nil)
}

func (m *sectionServiceMock) Unassign(ctx context.Context, studentID, sectionID string) dto.OperationResult {
	m.studentID, m.sectionID = studentID, sectionID
	return dto.Succeeded(nil, nil)
}

type studentIDServiceMock struct{}

func (studentIDServiceMock) Latest(ctx context.Context) (dto.LatestStudentIDResponse, error) {
	return dto.LatestStudentIDResponse{LatestID: "2025-0042"}, nil
}

func (studentIDServiceMock) Update(ctx context.Context, req dto.UpdateLatestStudentIDRequest) dto.OperationResult {
	return dto.Succeeded(dto.LatestStudentIDResponse{LatestID: req.LatestID}, nil)
}

func TestSystemConfigHandler(t *testing.T) {
	mock := &systemConfigServiceMock{}
	h := NewSystemConfigHandler(mock)

	c, w := newTestContext(http.MethodGet, "/system-config", nil)
	h.Get(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AY2526", decodeEnvelope(t, w)["data"].(map[string]interface{})["academicYear"])

	body, _ := json.Marshal(dto.UpdateSystemConfigRequest{AcademicYear: "AY2627", Semester: "2"})
	c, w = newTestContext(http.MethodPut, "/system-config", body)
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, mock.updated)
	assert.Equal(t, "2", mock.updated.Semester)

	c, w = newTestContext(http.MethodPut, "/system-config", []byte(`[]`))
	h.Update(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSectionHandlerPassesPathParams(t *testing.T) {
	mock := &sectionServiceMock{}
	h := NewSectionHandler(mock)
	c, w := newTestContext(http.MethodPut, "/sections/A/students/u1", nil)
	c.Params = gin.Params{{Key: "sectionId", Value: "A"}, {Key: "studentId", Value: "u1"}}

	h.Assign(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", mock.studentID)
	assert.Equal(t, "A", mock.sectionID)
}

func TestStudentIDHandler(t *testing.T) {
	h := NewStudentIDHandler(studentIDServiceMock{})

	c, w := newTestContext(http.MethodGet, "/student-ids/latest", nil)
	h.Latest(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-0042", decodeEnvelope(t, w)["data"].(map[string]interface{})["latestId"])

	c, w = newTestContext(http.MethodPut, "/student-ids/latest", []byte(`{"latestId":"2025-0043"}`))
	h.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-0043", decodeEnvelope(t, w)["data"].(map[string]interface{})["latestId"])
}

func TestMetricsHandlerReady(t *testing.T) {
	healthy := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return nil },
	})
	c, w := newTestContext(http.MethodGet, "/ready", nil)
	healthy.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	failing := NewMetricsHandler(nil, map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, w = newTestContext(http.MethodGet, "/ready", nil)
	failing.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "connection refused", decodeEnvelope(t, w)["checks"].(map[string]interface{})["store"])
}
