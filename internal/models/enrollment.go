package models

import (
	"strings"
	"time"
)

// Level discriminates the enrollment variant.
type Level string

// Supported levels.
const (
	LevelCollege    Level = "college"
	LevelHighSchool Level = "high-school"
)

// Department values used by high-school enrollments.
const (
	DepartmentJHS = "JHS"
	DepartmentSHS = "SHS"
)

// Semester is stored as first-sem / second-sem.
type Semester string

// Supported semesters.
const (
	SemesterFirst  Semester = "first-sem"
	SemesterSecond Semester = "second-sem"
)

// ParseSemester normalises the spellings callers send. An empty input yields
// an empty semester and ok=true.
func ParseSemester(raw string) (Semester, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return "", true
	case "1", "first", "first-sem", "first_sem", "first_semester", "first semester":
		return SemesterFirst, true
	case "2", "second", "second-sem", "second_sem", "second_semester", "second semester":
		return SemesterSecond, true
	default:
		return "", false
	}
}

// Word returns the key form, e.g. first_semester.
func (s Semester) Word() string {
	switch s {
	case SemesterFirst:
		return "first_semester"
	case SemesterSecond:
		return "second_semester"
	}
	return ""
}

// Number returns the SystemConfig form ("1" or "2").
func (s Semester) Number() string {
	switch s {
	case SemesterFirst:
		return "1"
	case SemesterSecond:
		return "2"
	}
	return ""
}

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusPending  EnrollmentStatus = "pending"
	EnrollmentStatusEnrolled EnrollmentStatus = "enrolled"
)

// StudentType distinguishes block-section students from irregular ones.
type StudentType string

// Possible student types.
const (
	StudentTypeRegular   StudentType = "regular"
	StudentTypeIrregular StudentType = "irregular"
)

// PersonalInfo is the snapshot of the student's details taken at submission.
type PersonalInfo struct {
	FirstName     string `json:"firstName,omitempty" mapstructure:"firstName"`
	MiddleName    string `json:"middleName,omitempty" mapstructure:"middleName"`
	LastName      string `json:"lastName,omitempty" mapstructure:"lastName"`
	Suffix        string `json:"suffix,omitempty" mapstructure:"suffix"`
	Email         string `json:"email,omitempty" mapstructure:"email"`
	ContactNumber string `json:"contactNumber,omitempty" mapstructure:"contactNumber"`
	BirthMonth    string `json:"birthMonth,omitempty" mapstructure:"birthMonth"`
	BirthDay      string `json:"birthDay,omitempty" mapstructure:"birthDay"`
	BirthYear     string `json:"birthYear,omitempty" mapstructure:"birthYear"`
}

// FullName joins the non-empty name parts.
func (p PersonalInfo) FullName() string {
	parts := make([]string, 0, 4)
	for _, part := range []string{p.FirstName, p.MiddleName, p.LastName, p.Suffix} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, " ")
}

// IsZero reports whether no personal detail is set.
func (p PersonalInfo) IsZero() bool {
	return p == PersonalInfo{}
}

// CollegeInfo holds the college variant of an enrollment.
type CollegeInfo struct {
	Department string   `json:"department,omitempty"`
	CourseCode string   `json:"courseCode"`
	CourseName string   `json:"courseName,omitempty"`
	YearLevel  int      `json:"yearLevel"`
	Semester   Semester `json:"semester,omitempty"`
}

// HighSchoolInfo holds the high-school variant. Semester is only set for SHS.
type HighSchoolInfo struct {
	Department string   `json:"department"`
	Strand     string   `json:"strand,omitempty"`
	GradeLevel int      `json:"gradeLevel"`
	Semester   Semester `json:"semester,omitempty"`
}

// EnrollmentInfo is a tagged union on Level: exactly one of College or
// HighSchool is set for cohort-aware records; legacy records may have neither.
type EnrollmentInfo struct {
	Level      Level           `json:"level,omitempty"`
	College    *CollegeInfo    `json:"college,omitempty"`
	HighSchool *HighSchoolInfo `json:"highSchool,omitempty"`

	SchoolYear      string           `json:"schoolYear"`
	Status          EnrollmentStatus `json:"status"`
	EnrollmentDate  *time.Time       `json:"enrollmentDate,omitempty"`
	ORNumber        string           `json:"orNumber,omitempty"`
	Scholarship     string           `json:"scholarship,omitempty"`
	SectionID       string           `json:"sectionId,omitempty"`
	StudentType     StudentType      `json:"studentType,omitempty"`
	SchoolStudentID string           `json:"schoolStudentId,omitempty"`
}

// Semester returns the variant's semester, empty for JHS and legacy records.
func (e EnrollmentInfo) Semester() Semester {
	switch {
	case e.College != nil:
		return e.College.Semester
	case e.HighSchool != nil:
		return e.HighSchool.Semester
	}
	return ""
}

// Department returns the variant's department.
func (e EnrollmentInfo) Department() string {
	switch {
	case e.College != nil:
		return e.College.Department
	case e.HighSchool != nil:
		return e.HighSchool.Department
	}
	return ""
}

// IsCollege reports whether this is a college enrollment.
func (e EnrollmentInfo) IsCollege() bool {
	return e.Level == LevelCollege
}

// IsSHS reports whether this is a senior high school enrollment.
func (e EnrollmentInfo) IsSHS() bool {
	return e.Level == LevelHighSchool && e.HighSchool != nil && strings.EqualFold(e.HighSchool.Department, DepartmentSHS)
}

// IsJHS reports whether this is a junior high school enrollment.
func (e EnrollmentInfo) IsJHS() bool {
	return e.Level == LevelHighSchool && e.HighSchool != nil && strings.EqualFold(e.HighSchool.Department, DepartmentJHS)
}

// EnrollmentRecord is one student's enrollment for one academic period.
type EnrollmentRecord struct {
	StudentID        string         `json:"studentId"`
	PersonalInfo     PersonalInfo   `json:"personalInfo"`
	EnrollmentInfo   EnrollmentInfo `json:"enrollmentInfo"`
	SelectedSubjects []string       `json:"selectedSubjects,omitempty"`
	SubmittedAt      *time.Time     `json:"submittedAt,omitempty"`
	UpdatedAt        *time.Time     `json:"updatedAt,omitempty"`
}

// ReplicaKind names where a copy of an enrollment lives.
type ReplicaKind string

// Replica kinds.
const (
	ReplicaSubcollection ReplicaKind = "subcollection"
	ReplicaTopLevel      ReplicaKind = "top-level"
	ReplicaGradeSheet    ReplicaKind = "grade-sheet"
	ReplicaRoster        ReplicaKind = "section-roster"
	ReplicaProfile       ReplicaKind = "student-profile"
)

// StoredEnrollment is a record together with the document it was read from.
type StoredEnrollment struct {
	Path    string           `json:"path"`
	Replica ReplicaKind      `json:"replica"`
	Record  EnrollmentRecord `json:"record"`
}
