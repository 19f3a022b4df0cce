package models

import "time"

// EnrollmentWindow bounds when submissions are accepted for a level.
type EnrollmentWindow struct {
	OpensAt  *time.Time `json:"opensAt,omitempty"`
	ClosesAt *time.Time `json:"closesAt,omitempty"`
}

// Contains reports whether t falls within the window. Missing bounds are open.
func (w EnrollmentWindow) Contains(t time.Time) bool {
	if w.OpensAt != nil && t.Before(*w.OpensAt) {
		return false
	}
	if w.ClosesAt != nil && t.After(*w.ClosesAt) {
		return false
	}
	return true
}

// EnrollmentWindows holds the optional per-level windows.
type EnrollmentWindows struct {
	College    *EnrollmentWindow `json:"college,omitempty"`
	HighSchool *EnrollmentWindow `json:"high-school,omitempty"`
}

// For returns the window configured for level, if any.
func (w EnrollmentWindows) For(level Level) *EnrollmentWindow {
	switch level {
	case LevelCollege:
		return w.College
	case LevelHighSchool:
		return w.HighSchool
	}
	return nil
}

// SystemConfig is the snapshot of the process-wide registrar settings.
// It is read once per operation and passed down explicitly.
type SystemConfig struct {
	AcademicYear string            `json:"academicYear"`
	Semester     Semester          `json:"semester,omitempty"`
	Windows      EnrollmentWindows `json:"enrollmentWindows"`
	Defaulted    bool              `json:"defaulted"`
}
