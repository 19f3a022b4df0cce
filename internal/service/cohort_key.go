package service

import (
	"fmt"
	"strings"

	"github.com/noah-isme/sma-registrar-api/internal/models"
	appErrors "github.com/noah-isme/sma-registrar-api/pkg/errors"
)

// CohortKey derives the document key shared by every student of a cohort.
//
//	college with semester   {ay}_{semesterWord}_{courseCode}_{yearLevel}
//	SHS with semester       {ay}_{semesterWord}_{strand}_{gradeLevel}
//	JHS                     {ay}_JHS_{gradeLevel}
//	anything else           {ay}
func CohortKey(academicYear string, info models.EnrollmentInfo) (string, error) {
	if !ValidAcademicYear(academicYear) {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid academic year %q", academicYear))
	}
	switch {
	case info.College != nil:
		c := info.College
		if word := c.Semester.Word(); word != "" && c.CourseCode != "" && c.YearLevel > 0 {
			return joinKey(academicYear, word, c.CourseCode, fmt.Sprint(c.YearLevel)), nil
		}
	case info.IsSHS():
		h := info.HighSchool
		if word := h.Semester.Word(); word != "" && h.Strand != "" && h.GradeLevel > 0 {
			return joinKey(academicYear, word, h.Strand, fmt.Sprint(h.GradeLevel)), nil
		}
	case info.IsJHS():
		if info.HighSchool.GradeLevel > 0 {
			return joinKey(academicYear, models.DepartmentJHS, fmt.Sprint(info.HighSchool.GradeLevel)), nil
		}
	}
	return academicYear, nil
}

// StudentScopedKey prefixes the cohort key with the student id; it names the
// top-level replica.
func StudentScopedKey(studentID, academicYear string, info models.EnrollmentInfo) (string, error) {
	key, err := CohortKey(academicYear, info)
	if err != nil {
		return "", err
	}
	return joinKey(studentID, key), nil
}

// SemesterKey is the current-format top-level key {studentId}_{ay}_{semesterWord}.
func SemesterKey(studentID, academicYear string, semester models.Semester) string {
	return joinKey(studentID, academicYear, semester.Word())
}

// LegacyKey is the pre-cohort top-level key {studentId}_{ay}.
func LegacyKey(studentID, academicYear string) string {
	return joinKey(studentID, academicYear)
}

// JHSKeyPrefix matches current-format JHS subcollection keys of one year.
func JHSKeyPrefix(academicYear string) string {
	return joinKey(academicYear, models.DepartmentJHS) + "_"
}

// LevelLabel formats the level shown on grade sheets.
func LevelLabel(info models.EnrollmentInfo) string {
	switch {
	case info.College != nil:
		return strings.TrimSpace(fmt.Sprintf("%s %d", info.College.CourseCode, info.College.YearLevel))
	case info.IsSHS():
		return strings.TrimSpace(fmt.Sprintf("Grade %d %s", info.HighSchool.GradeLevel, info.HighSchool.Strand))
	case info.HighSchool != nil:
		return fmt.Sprintf("Grade %d", info.HighSchool.GradeLevel)
	}
	return ""
}

func joinKey(parts ...string) string {
	return strings.Join(parts, "_")
}
