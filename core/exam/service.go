// Package exam records exam results and grades them.
package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/school"
)

var (
	ErrNotFound  = core.NewNotFoundError("Exam record not found")
	ErrDuplicate = core.NewConflictError("Exam record already exists for this student, subject, exam type and academic year")
)

type Repository interface {
	// CreateExam returns ErrDuplicate when an exam already exists for (student, subject, examType, academicYear).
	CreateExam(ctx context.Context, exam Exam) (Exam, error)
	GetExam(ctx context.Context, id string) (Exam, error)
	QueryExams(ctx context.Context, filter QueryFilter) ([]Exam, error)
}

type Service struct {
	repo       Repository
	schoolRepo school.Repository
	logger     core.Logger
}

func NewService(repo Repository, schoolRepo school.Repository, logger core.Logger) *Service {
	return &Service{repo: repo, schoolRepo: schoolRepo, logger: logger}
}

func checkMarks(obtained, total float64) error {
	if obtained > total {
		return core.NewFieldValidationError("obtainedMarks", obtainedMarksText)
	}
	return nil
}

func checkDate(date time.Time) error {
	if date.After(core.Now()) {
		return core.NewFieldValidationError("date", futureDateText)
	}
	return nil
}

// academicYear returns the supplied academic year or derives it from the exam date.
func academicYear(supplied string, date time.Time) (string, error) {
	year := supplied
	if year == "" {
		year = period.AcademicYear(date)
	}
	if !period.IsValidAcademicYear(year) {
		return "", core.NewFieldValidationError("academicYear", academicYearText)
	}
	return year, nil
}

func (svc *Service) Create(ctx context.Context, ne NewExam, actor core.Actor) (ScoredExam, error) {
	if err := core.ValidateStruct(ne); err != nil {
		return ScoredExam{}, err
	}
	if err := checkMarks(ne.ObtainedMarks, ne.TotalMarks); err != nil {
		return ScoredExam{}, err
	}
	if err := checkDate(ne.Date); err != nil {
		return ScoredExam{}, err
	}
	year, err := academicYear(ne.AcademicYear, ne.Date.UTC())
	if err != nil {
		return ScoredExam{}, err
	}

	if _, err := svc.schoolRepo.GetStudent(ctx, ne.Student); err != nil {
		return ScoredExam{}, err
	}
	if _, err := svc.schoolRepo.GetClass(ctx, ne.Class); err != nil {
		return ScoredExam{}, err
	}
	if _, err := svc.schoolRepo.GetTeacher(ctx, ne.Teacher); err != nil {
		return ScoredExam{}, err
	}
	if _, err := svc.schoolRepo.GetSubject(ctx, ne.Subject); err != nil {
		return ScoredExam{}, err
	}

	exam := Exam{
		Student:       ne.Student,
		Class:         ne.Class,
		Teacher:       ne.Teacher,
		Subject:       ne.Subject,
		ExamType:      ne.ExamType,
		Date:          ne.Date.UTC(),
		ObtainedMarks: ne.ObtainedMarks,
		TotalMarks:    ne.TotalMarks,
		AcademicYear:  year,
	}
	return svc.create(ctx, exam, actor)
}

// CreateForClass records the results of a class for one exam.
// Every mark and student is checked before the first write, but a failing write leaves the earlier ones.
func (svc *Service) CreateForClass(ctx context.Context, nce NewClassExam, actor core.Actor) (ClassExamResult, error) {
	if err := core.ValidateStruct(nce); err != nil {
		return ClassExamResult{}, err
	}
	for _, m := range nce.MarksList {
		if err := checkMarks(m.ObtainedMarks, nce.TotalMarks); err != nil {
			return ClassExamResult{}, err
		}
	}
	if err := checkDate(nce.Date); err != nil {
		return ClassExamResult{}, err
	}
	year, err := academicYear(nce.AcademicYear, nce.Date.UTC())
	if err != nil {
		return ClassExamResult{}, err
	}

	if _, err := svc.schoolRepo.GetClass(ctx, nce.Class); err != nil {
		return ClassExamResult{}, err
	}
	if _, err := svc.schoolRepo.GetSubject(ctx, nce.Subject); err != nil {
		return ClassExamResult{}, err
	}
	teacher := nce.Teacher
	if teacher == "" {
		teacher = actor.ID
	} else if _, err := svc.schoolRepo.GetTeacher(ctx, teacher); err != nil {
		return ClassExamResult{}, err
	}

	students, err := svc.schoolRepo.QueryStudents(ctx, school.StudentFilter{Class: nce.Class})
	if err != nil {
		return ClassExamResult{}, errors.Wrap(err, "querying class students")
	}
	inClass := make(map[string]bool, len(students))
	for _, s := range students {
		inClass[s.ID] = true
	}
	for _, m := range nce.MarksList {
		if !inClass[m.Student] {
			return ClassExamResult{}, core.NewFieldValidationError(
				"marksList", fmt.Sprintf("Student with ID %s does not belong to this class", m.Student),
			)
		}
	}

	res := ClassExamResult{Data: make([]ScoredExam, 0, len(nce.MarksList))}
	for _, m := range nce.MarksList {
		exam := Exam{
			Student:       m.Student,
			Class:         nce.Class,
			Teacher:       teacher,
			Subject:       nce.Subject,
			ExamType:      nce.ExamType,
			Date:          nce.Date.UTC(),
			ObtainedMarks: m.ObtainedMarks,
			TotalMarks:    nce.TotalMarks,
			AcademicYear:  year,
		}
		scored, err := svc.create(ctx, exam, actor)
		if err != nil {
			return res, errors.Wrapf(err, "creating exam of student %s", m.Student)
		}
		res.Data = append(res.Data, scored)
		res.ExamsCount++
	}
	return res, nil
}

func (svc *Service) create(ctx context.Context, exam Exam, actor core.Actor) (ScoredExam, error) {
	exam.ID = uuid.NewString()
	exam.CreatedBy = actor.ID
	exam.CreatedAt = core.Now()
	exam, err := svc.repo.CreateExam(ctx, exam)
	if err != nil {
		return ScoredExam{}, err
	}
	if err := svc.schoolRepo.AddStudentExam(ctx, exam.Student, exam.ID); err != nil {
		svc.logger.Error("adding exam reference to student", err, actor)
	}
	return Score(exam), nil
}

func (svc *Service) Get(ctx context.Context, id string) (ScoredExam, error) {
	exam, err := svc.repo.GetExam(ctx, id)
	if err != nil {
		return ScoredExam{}, err
	}
	return Score(exam), nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]ScoredExam, error) {
	exams, err := svc.repo.QueryExams(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	scored := make([]ScoredExam, 0, len(exams))
	for _, e := range exams {
		scored = append(scored, Score(e))
	}
	return scored, nil
}
