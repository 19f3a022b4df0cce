package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

func TestDecodeEnrollmentCollegeVariant(t *testing.T) {
	rec, err := DecodeEnrollment(docstore.Data{
		"studentId": "u1",
		"personalInfo": map[string]interface{}{
			"firstName": "Ana",
			"lastName":  "Cruz",
			"birthYear": 2004,
		},
		"enrollmentInfo": map[string]interface{}{
			"level":      "college",
			"courseCode": "BSIT",
			"yearLevel":  "1",
			"semester":   "first-sem",
			"schoolYear": "AY2526",
			"status":     "pending",
		},
		"selectedSubjects": []interface{}{"s1", "s2"},
	})
	require.NoError(t, err)
	require.NotNil(t, rec.EnrollmentInfo.College)
	assert.Nil(t, rec.EnrollmentInfo.HighSchool)
	assert.Equal(t, 1, rec.EnrollmentInfo.College.YearLevel)
	assert.Equal(t, models.SemesterFirst, rec.EnrollmentInfo.Semester())
	assert.Equal(t, "2004", rec.PersonalInfo.BirthYear)
	assert.Equal(t, []string{"s1", "s2"}, rec.SelectedSubjects)
}

func TestDecodeEnrollmentLegacyLabels(t *testing.T) {
	rec, err := DecodeEnrollment(docstore.Data{
		"studentId": "u2",
		"enrollmentInfo": map[string]interface{}{
			"gradeLevel":     "Grade 11",
			"department":     "shs",
			"strand":         "STEM",
			"semester":       "2",
			"schoolYear":     "AY2526",
			"status":         "ENROLLED",
			"enrollmentDate": "2025-06-01T08:00:00Z",
		},
	})
	require.NoError(t, err)
	info := rec.EnrollmentInfo
	assert.Equal(t, models.LevelHighSchool, info.Level)
	require.NotNil(t, info.HighSchool)
	assert.Equal(t, 11, info.HighSchool.GradeLevel)
	assert.True(t, info.IsSHS())
	assert.Equal(t, models.SemesterSecond, info.Semester())
	assert.Equal(t, models.EnrollmentStatusEnrolled, info.Status)
	require.NotNil(t, info.EnrollmentDate)
	assert.Equal(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC), info.EnrollmentDate.UTC())
}

func TestDecodeEnrollmentJHSIgnoresSemester(t *testing.T) {
	rec, err := DecodeEnrollment(docstore.Data{
		"enrollmentInfo": map[string]interface{}{
			"level":      "high-school",
			"department": "JHS",
			"gradeLevel": 8,
			"semester":   "first-sem",
			"schoolYear": "AY2526",
		},
	})
	require.NoError(t, err)
	assert.True(t, rec.EnrollmentInfo.IsJHS())
	assert.Empty(t, rec.EnrollmentInfo.Semester())
}

func TestEncodeEnrollmentOmitsEmptyFields(t *testing.T) {
	data := EncodeEnrollment(models.EnrollmentRecord{
		StudentID: "u1",
		EnrollmentInfo: models.EnrollmentInfo{
			Level:      models.LevelHighSchool,
			HighSchool: &models.HighSchoolInfo{Department: models.DepartmentJHS, GradeLevel: 8},
			SchoolYear: "AY2526",
			Status:     models.EnrollmentStatusPending,
		},
	})
	info := data["enrollmentInfo"].(docstore.Data)
	assert.Equal(t, 8, info["gradeLevel"])
	assert.NotContains(t, info, "semester")
	assert.NotContains(t, info, "strand")
	assert.NotContains(t, info, "sectionId")
	assert.NotContains(t, data, "personalInfo")
	assert.NotContains(t, data, "selectedSubjects")
}

func TestEncodeDecodeKeepsVariant(t *testing.T) {
	in := models.EnrollmentRecord{
		StudentID:    "u1",
		PersonalInfo: models.PersonalInfo{FirstName: "Ana", LastName: "Cruz"},
		EnrollmentInfo: models.EnrollmentInfo{
			Level:      models.LevelCollege,
			College:    &models.CollegeInfo{CourseCode: "BSIT", YearLevel: 2, Semester: models.SemesterSecond},
			SchoolYear: "AY2526",
			Status:     models.EnrollmentStatusEnrolled,
			SectionID:  "sec-1",
		},
		SelectedSubjects: []string{"s1"},
	}
	out, err := DecodeEnrollment(EncodeEnrollment(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
