package models

// StudentProfile is the subset of students/{id} maintained by the registrar.
type StudentProfile struct {
	ID              string       `json:"id"`
	SchoolStudentID string       `json:"schoolStudentId,omitempty"`
	PersonalInfo    PersonalInfo `json:"personalInfo"`
}

// StudentIDCounter records the most recently issued school student id.
type StudentIDCounter struct {
	LatestID string `json:"latestId"`
}
