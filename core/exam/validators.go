package exam

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/period"
)

var (
	academicYearTag  = "academic_year"
	academicYearText = "Academic year must be in the format YYYY/YYYY"

	examTypeTag  = "exam_type"
	examTypeText = "{0} must be one of " + strings.Join(Types, ", ")

	obtainedMarksText = "Obtained marks cannot exceed total marks."
	futureDateText    = "Exam date cannot be in the future."
)

func init() {
	_ = core.Validate.RegisterValidation(academicYearTag, academicYearValidation)
	core.RegisterCustomTranslation(academicYearTag, academicYearText)

	_ = core.Validate.RegisterValidation(examTypeTag, examTypeValidation)
	core.RegisterCustomTranslation(examTypeTag, examTypeText)
}

// Custom Validators

func academicYearValidation(fl validator.FieldLevel) bool {
	return period.IsValidAcademicYear(fl.Field().String())
}

func examTypeValidation(fl validator.FieldLevel) bool {
	return IsValidType(fl.Field().String())
}
