package models

// SubjectGrades holds the four period grade slots of one subject.
type SubjectGrades struct {
	SubjectName  string   `json:"subjectName" mapstructure:"subjectName"`
	FirstPeriod  *float64 `json:"firstPeriod" mapstructure:"firstPeriod"`
	SecondPeriod *float64 `json:"secondPeriod" mapstructure:"secondPeriod"`
	ThirdPeriod  *float64 `json:"thirdPeriod" mapstructure:"thirdPeriod"`
	FourthPeriod *float64 `json:"fourthPeriod" mapstructure:"fourthPeriod"`
}

// GradeSheet maps subject ids to recorded grades for one student and period.
type GradeSheet struct {
	StudentID   string                   `json:"studentId,omitempty"`
	StudentName string                   `json:"studentName,omitempty"`
	SectionName string                   `json:"sectionName"`
	Level       string                   `json:"level,omitempty"`
	Semester    string                   `json:"semester,omitempty"`
	SchoolYear  string                   `json:"schoolYear,omitempty"`
	Subjects    map[string]SubjectGrades `json:"subjects"`
}

// SubjectIDs returns the subject keys of the sheet.
func (g GradeSheet) SubjectIDs() []string {
	ids := make([]string, 0, len(g.Subjects))
	for id := range g.Subjects {
		ids = append(ids, id)
	}
	return ids
}

// GradeSheetMeta is the denormalised reporting data written alongside subjects.
type GradeSheetMeta struct {
	StudentName string
	SectionName string
	Level       string
	Semester    string
	SchoolYear  string
}
