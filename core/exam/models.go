package exam

import "time"

// Exam types
const (
	TypeMidTerm    = "mid-term"
	TypeFinal      = "final"
	TypeQuiz       = "quiz"
	TypeAssignment = "assignment"
)

var Types = []string{TypeMidTerm, TypeFinal, TypeQuiz, TypeAssignment}

func IsValidType(typ string) bool {
	for _, t := range Types {
		if t == typ {
			return true
		}
	}
	return false
}

type Exam struct {
	ID            string    `json:"id" bson:"_id" db:"id"`
	Student       string    `json:"student" bson:"student" db:"student_id"`
	Class         string    `json:"class" bson:"class" db:"class_id"`
	Teacher       string    `json:"teacher" bson:"teacher" db:"teacher_id"`
	Subject       string    `json:"subject" bson:"subject" db:"subject_id"`
	ExamType      string    `json:"examType" bson:"examType" db:"exam_type"`
	Date          time.Time `json:"date" bson:"date" db:"date"` // UTC
	ObtainedMarks float64   `json:"obtainedMarks" bson:"obtainedMarks" db:"obtained_marks"`
	TotalMarks    float64   `json:"totalMarks" bson:"totalMarks" db:"total_marks"`
	AcademicYear  string    `json:"academicYear" bson:"academicYear" db:"academic_year"`
	CreatedBy     string    `json:"createdBy" bson:"createdBy" db:"created_by"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
}

// ScoredExam is an Exam with its derived percentage and letter grade.
type ScoredExam struct {
	Exam
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

func Score(e Exam) ScoredExam {
	pct := Percentage(e.ObtainedMarks, e.TotalMarks)
	return ScoredExam{Exam: e, Percentage: pct, Grade: Grade(pct)}
}

// Percentage returns obtained/total as a percentage; a zero total counts as 100.
func Percentage(obtained, total float64) float64 {
	if total == 0 {
		total = 100
	}
	return 100 * obtained / total
}

// Grade returns the letter grade of a percentage.
func Grade(pct float64) string {
	switch {
	case pct >= 90:
		return "A"
	case pct >= 80:
		return "B"
	case pct >= 70:
		return "C"
	case pct >= 60:
		return "D"
	default:
		return "F"
	}
}

type NewExam struct {
	Student       string    `json:"student" validate:"required"`
	Class         string    `json:"class" validate:"required"`
	Teacher       string    `json:"teacher" validate:"required"`
	Subject       string    `json:"subjectId" validate:"required"`
	ExamType      string    `json:"examType" validate:"required,exam_type"`
	Date          time.Time `json:"date" validate:"required"`
	ObtainedMarks float64   `json:"obtainedMarks" validate:"gte=0"`
	TotalMarks    float64   `json:"totalMarks" validate:"required,gte=1"`
	AcademicYear  string    `json:"academicYear" validate:"omitempty,academic_year"` // derived from Date when empty
}

type StudentMarks struct {
	Student       string  `json:"studentId" validate:"required"`
	ObtainedMarks float64 `json:"obtainedMarks" validate:"gte=0"`
}

type NewClassExam struct {
	ExamType     string         `json:"examType" validate:"required,exam_type"`
	Date         time.Time      `json:"date" validate:"required"`
	Class        string         `json:"classId" validate:"required"`
	Subject      string         `json:"subjectId" validate:"required"`
	Teacher      string         `json:"teacher"` // defaults to the acting user
	TotalMarks   float64        `json:"totalMarks" validate:"required,gte=1"`
	AcademicYear string         `json:"academicYear" validate:"omitempty,academic_year"`
	MarksList    []StudentMarks `json:"marksList" validate:"required,min=1,dive"`
}

type ClassExamResult struct {
	ExamsCount int          `json:"examsCount"`
	Data       []ScoredExam `json:"data"`
}

// QueryFilter applies an AND operation on its non-zero fields.
type QueryFilter struct {
	Student      string
	Class        string
	Subject      string
	ExamType     string
	AcademicYear string
}
