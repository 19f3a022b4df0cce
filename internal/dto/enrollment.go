package dto

import (
	"time"

	"github.com/noah-isme/sma-registrar-api/internal/models"
)

// SubmitEnrollmentRequest is the payload of a new enrollment application.
type SubmitEnrollmentRequest struct {
	PersonalInfo     models.PersonalInfo `json:"personalInfo"`
	Level            string              `json:"level" validate:"required,oneof=college high-school"`
	Department       string              `json:"department"`
	Strand           string              `json:"strand"`
	CourseCode       string              `json:"courseCode" validate:"required_if=Level college"`
	CourseName       string              `json:"courseName"`
	YearLevel        int                 `json:"yearLevel" validate:"omitempty,min=1,max=6"`
	GradeLevel       int                 `json:"gradeLevel" validate:"omitempty,min=7,max=12"`
	Semester         string              `json:"semester"`
	SchoolYear       string              `json:"schoolYear" validate:"omitempty,ayCode"`
	StudentType      string              `json:"studentType" validate:"omitempty,oneof=regular irregular"`
	SelectedSubjects []string            `json:"selectedSubjects"`
}

// EnrollStudentRequest finalises a pending enrollment.
type EnrollStudentRequest struct {
	SubjectIDs      []string `json:"subjectIds"`
	ORNumber        string   `json:"orNumber"`
	Scholarship     string   `json:"scholarship"`
	SchoolStudentID string   `json:"schoolStudentId"`
	StudentType     string   `json:"studentType" validate:"omitempty,oneof=regular irregular"`
	Level           string   `json:"level" validate:"omitempty,oneof=college high-school"`
	Semester        string   `json:"semester"`
}

// DeleteEnrollmentRequest narrows which enrollment is removed.
type DeleteEnrollmentRequest struct {
	Level    string `form:"level" validate:"omitempty,oneof=college high-school"`
	Semester string `form:"semester"`
}

// EnrollmentQuery selects one enrollment of a student.
type EnrollmentQuery struct {
	AcademicYear string `form:"ay" validate:"omitempty,ayCode"`
	Semester     string `form:"semester"`
}

// EnrollmentWindowRequest is one level's submission window.
type EnrollmentWindowRequest struct {
	OpensAt  *time.Time `json:"opensAt"`
	ClosesAt *time.Time `json:"closesAt"`
}

// EnrollmentWindowsRequest carries optional per-level windows.
type EnrollmentWindowsRequest struct {
	College    *EnrollmentWindowRequest `json:"college" validate:"omitempty"`
	HighSchool *EnrollmentWindowRequest `json:"high-school" validate:"omitempty"`
}

// UpdateSystemConfigRequest changes the active academic period.
type UpdateSystemConfigRequest struct {
	AcademicYear string                    `json:"academicYear" validate:"required,ayCode"`
	Semester     string                    `json:"semester" validate:"omitempty,oneof=1 2"`
	Windows      *EnrollmentWindowsRequest `json:"enrollmentWindows" validate:"omitempty"`
}

// UpdateLatestStudentIDRequest records the last issued school student id.
type UpdateLatestStudentIDRequest struct {
	LatestID string `json:"latestId" validate:"required"`
}

// LatestStudentIDResponse wraps the last issued school student id.
type LatestStudentIDResponse struct {
	LatestID string `json:"latestId"`
}
