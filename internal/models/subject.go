package models

// Subject is a catalog entry. Only its display name matters here.
type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SubjectAssignment binds a cohort to a subject set.
type SubjectAssignment struct {
	ID           string   `json:"id"`
	Level        Level    `json:"level"`
	CourseCode   string   `json:"courseCode,omitempty"`
	YearLevel    int      `json:"yearLevel,omitempty"`
	Semester     Semester `json:"semester,omitempty"`
	GradeLevel   int      `json:"gradeLevel,omitempty"`
	SubjectSetID string   `json:"subjectSetId"`
}

// SubjectSet is an unordered list of subject ids.
type SubjectSet struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	SubjectIDs []string `json:"subjects"`
}
