package models

// SectionRoster is a section's member list.
type SectionRoster struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Students   []string `json:"students"`
	Department string   `json:"department,omitempty"`
	GradeLevel int      `json:"gradeLevel,omitempty"`
	CourseCode string   `json:"courseCode,omitempty"`
}

// HasStudent reports whether studentID is on the roster.
func (s SectionRoster) HasStudent(studentID string) bool {
	for _, id := range s.Students {
		if id == studentID {
			return true
		}
	}
	return false
}
