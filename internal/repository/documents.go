package repository

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
)

// Document locations.
const (
	CollectionEnrollments        = "enrollments"
	CollectionStudents           = "students"
	SubcollectionEnrollment      = "enrollment"
	SubcollectionGrades          = "studentGrades"
	CollectionSections           = "sections"
	CollectionSubjectAssignments = "subject-assignments"
	CollectionSubjectSets        = "subject-sets"
	CollectionSubjects           = "subjects"
	SystemConfigPath             = "config/system"
	StudentIDCounterPath         = "config/studentIds"
)

// Field names shared by queries and patches.
const (
	FieldStudentID      = "studentId"
	FieldSchoolYear     = "enrollmentInfo.schoolYear"
	FieldStatus         = "enrollmentInfo.status"
	FieldEnrollmentDate = "enrollmentInfo.enrollmentDate"
	FieldSectionID      = "enrollmentInfo.sectionId"
	FieldUpdatedAt      = "updatedAt"
	FieldRosterStudents = "students"
)

// TopLevelPath returns enrollments/{key}.
func TopLevelPath(key string) string {
	return docstore.Join(CollectionEnrollments, key)
}

// StudentEnrollmentCollection returns students/{id}/enrollment.
func StudentEnrollmentCollection(studentID string) string {
	return docstore.Join(CollectionStudents, studentID, SubcollectionEnrollment)
}

// SubcollectionPath returns students/{id}/enrollment/{key}.
func SubcollectionPath(studentID, key string) string {
	return docstore.Join(StudentEnrollmentCollection(studentID), key)
}

// GradeSheetPath returns students/{id}/studentGrades/{key}.
func GradeSheetPath(studentID, key string) string {
	return docstore.Join(CollectionStudents, studentID, SubcollectionGrades, key)
}

// StudentProfilePath returns students/{id}.
func StudentProfilePath(studentID string) string {
	return docstore.Join(CollectionStudents, studentID)
}

// SectionPath returns sections/{id}.
func SectionPath(sectionID string) string {
	return docstore.Join(CollectionSections, sectionID)
}

func decode(input interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			digitsToIntHook,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

// digitsToIntHook accepts legacy labels such as "Grade 11" or "1st Year".
func digitsToIntHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Int {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	start := strings.IndexAny(raw, "0123456789")
	if start < 0 {
		return 0, nil
	}
	end := start
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(raw[start:end])
	if err != nil {
		return data, nil
	}
	return n, nil
}

type personalInfoDoc = models.PersonalInfo

type enrollmentInfoDoc struct {
	Level           string     `mapstructure:"level"`
	Department      string     `mapstructure:"department"`
	Strand          string     `mapstructure:"strand"`
	CourseCode      string     `mapstructure:"courseCode"`
	CourseName      string     `mapstructure:"courseName"`
	YearLevel       int        `mapstructure:"yearLevel"`
	GradeLevel      int        `mapstructure:"gradeLevel"`
	Semester        string     `mapstructure:"semester"`
	SchoolYear      string     `mapstructure:"schoolYear"`
	Status          string     `mapstructure:"status"`
	EnrollmentDate  *time.Time `mapstructure:"enrollmentDate"`
	ORNumber        string     `mapstructure:"orNumber"`
	Scholarship     string     `mapstructure:"scholarship"`
	SectionID       string     `mapstructure:"sectionId"`
	StudentType     string     `mapstructure:"studentType"`
	SchoolStudentID string     `mapstructure:"schoolStudentId"`
}

type enrollmentDoc struct {
	StudentID        string            `mapstructure:"studentId"`
	PersonalInfo     personalInfoDoc   `mapstructure:"personalInfo"`
	EnrollmentInfo   enrollmentInfoDoc `mapstructure:"enrollmentInfo"`
	SelectedSubjects []string          `mapstructure:"selectedSubjects"`
	SubmittedAt      *time.Time        `mapstructure:"submittedAt"`
	UpdatedAt        *time.Time        `mapstructure:"updatedAt"`
}

// DecodeEnrollment converts a stored document into the tagged record.
// Legacy documents without a level are classified from the fields they carry.
func DecodeEnrollment(data docstore.Data) (models.EnrollmentRecord, error) {
	var doc enrollmentDoc
	if err := decode(data, &doc); err != nil {
		return models.EnrollmentRecord{}, err
	}
	in := doc.EnrollmentInfo
	semester, _ := models.ParseSemester(in.Semester)

	info := models.EnrollmentInfo{
		Level:           models.Level(strings.ToLower(in.Level)),
		SchoolYear:      in.SchoolYear,
		Status:          models.EnrollmentStatus(strings.ToLower(in.Status)),
		EnrollmentDate:  in.EnrollmentDate,
		ORNumber:        in.ORNumber,
		Scholarship:     in.Scholarship,
		SectionID:       in.SectionID,
		StudentType:     models.StudentType(in.StudentType),
		SchoolStudentID: in.SchoolStudentID,
	}
	if info.Level == "" {
		switch {
		case in.CourseCode != "":
			info.Level = models.LevelCollege
		case in.GradeLevel > 0 || in.Strand != "" || isHighSchoolDepartment(in.Department):
			info.Level = models.LevelHighSchool
		}
	}
	switch info.Level {
	case models.LevelCollege:
		info.College = &models.CollegeInfo{
			Department: in.Department,
			CourseCode: in.CourseCode,
			CourseName: in.CourseName,
			YearLevel:  in.YearLevel,
			Semester:   semester,
		}
	case models.LevelHighSchool:
		department := strings.ToUpper(in.Department)
		hs := &models.HighSchoolInfo{Department: department, Strand: in.Strand, GradeLevel: in.GradeLevel}
		if department != models.DepartmentJHS {
			hs.Semester = semester
		}
		info.HighSchool = hs
	}

	return models.EnrollmentRecord{
		StudentID:        doc.StudentID,
		PersonalInfo:     doc.PersonalInfo,
		EnrollmentInfo:   info,
		SelectedSubjects: doc.SelectedSubjects,
		SubmittedAt:      doc.SubmittedAt,
		UpdatedAt:        doc.UpdatedAt,
	}, nil
}

func isHighSchoolDepartment(department string) bool {
	d := strings.ToUpper(department)
	return d == models.DepartmentJHS || d == models.DepartmentSHS
}

// EncodeEnrollment converts a record into a document body. Empty values are
// left out so the store never sees unset fields.
func EncodeEnrollment(rec models.EnrollmentRecord) docstore.Data {
	e := rec.EnrollmentInfo
	info := docstore.Data{}
	putString(info, "level", string(e.Level))
	putString(info, "schoolYear", e.SchoolYear)
	putString(info, "status", string(e.Status))
	putString(info, "orNumber", e.ORNumber)
	putString(info, "scholarship", e.Scholarship)
	putString(info, "sectionId", e.SectionID)
	putString(info, "studentType", string(e.StudentType))
	putString(info, "schoolStudentId", e.SchoolStudentID)
	if e.EnrollmentDate != nil {
		info["enrollmentDate"] = *e.EnrollmentDate
	}
	switch {
	case e.College != nil:
		putString(info, "department", e.College.Department)
		putString(info, "courseCode", e.College.CourseCode)
		putString(info, "courseName", e.College.CourseName)
		putInt(info, "yearLevel", e.College.YearLevel)
		putString(info, "semester", string(e.College.Semester))
	case e.HighSchool != nil:
		putString(info, "department", e.HighSchool.Department)
		putString(info, "strand", e.HighSchool.Strand)
		putInt(info, "gradeLevel", e.HighSchool.GradeLevel)
		putString(info, "semester", string(e.HighSchool.Semester))
	}

	p := rec.PersonalInfo
	personal := docstore.Data{}
	putString(personal, "firstName", p.FirstName)
	putString(personal, "middleName", p.MiddleName)
	putString(personal, "lastName", p.LastName)
	putString(personal, "suffix", p.Suffix)
	putString(personal, "email", p.Email)
	putString(personal, "contactNumber", p.ContactNumber)
	putString(personal, "birthMonth", p.BirthMonth)
	putString(personal, "birthDay", p.BirthDay)
	putString(personal, "birthYear", p.BirthYear)

	data := docstore.Data{
		"studentId":      rec.StudentID,
		"enrollmentInfo": info,
	}
	if len(personal) > 0 {
		data["personalInfo"] = personal
	}
	if len(rec.SelectedSubjects) > 0 {
		subjects := make([]interface{}, len(rec.SelectedSubjects))
		for i, id := range rec.SelectedSubjects {
			subjects[i] = id
		}
		data["selectedSubjects"] = subjects
	}
	if rec.SubmittedAt != nil {
		data["submittedAt"] = *rec.SubmittedAt
	}
	if rec.UpdatedAt != nil {
		data["updatedAt"] = *rec.UpdatedAt
	}
	return data
}

func putString(m docstore.Data, key, value string) {
	if value != "" {
		m[key] = value
	}
}

func putInt(m docstore.Data, key string, value int) {
	if value > 0 {
		m[key] = value
	}
}
