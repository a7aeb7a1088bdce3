// Package school manages the records referenced by fees, salaries and exams:
// classes, students, teachers and subjects.
package school

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
)

var (
	ErrClassNotFound   = core.NewNotFoundError("Class not found")
	ErrStudentNotFound = core.NewNotFoundError("Student not found")
	ErrTeacherNotFound = core.NewNotFoundError("Teacher not found")
	ErrSubjectNotFound = core.NewNotFoundError("Subject not found")
)

type Repository interface {
	CreateClass(ctx context.Context, class Class) (Class, error)
	GetClass(ctx context.Context, id string) (Class, error)
	QueryClasses(ctx context.Context) ([]Class, error)

	CreateStudent(ctx context.Context, student Student) (Student, error)
	GetStudent(ctx context.Context, id string) (Student, error)
	QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error)

	CreateTeacher(ctx context.Context, teacher Teacher) (Teacher, error)
	GetTeacher(ctx context.Context, id string) (Teacher, error)
	QueryTeachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error)

	CreateSubject(ctx context.Context, subject Subject) (Subject, error)
	GetSubject(ctx context.Context, id string) (Subject, error)
	QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error)

	// back-references: set semantics, adding an existing id is a no-op.
	AddStudentFee(ctx context.Context, studentID, feeID string) error
	AddStudentExam(ctx context.Context, studentID, examID string) error
	AddTeacherSalary(ctx context.Context, teacherID, salaryID string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CreateClass(ctx context.Context, nc NewClass) (Class, error) {
	if err := core.ValidateStruct(nc); err != nil {
		return Class{}, err
	}
	class := Class{
		ID:        uuid.NewString(),
		Name:      core.CleanString(nc.Name),
		CreatedAt: core.Now(),
	}
	class, err := svc.repo.CreateClass(ctx, class)
	return class, errors.Wrap(err, "creating class")
}

func (svc *Service) GetClass(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *Service) CreateStudent(ctx context.Context, ns NewStudent) (Student, error) {
	if err := core.ValidateStruct(ns); err != nil {
		return Student{}, err
	}
	if ns.Class != "" {
		if _, err := svc.repo.GetClass(ctx, ns.Class); err != nil {
			return Student{}, err
		}
	}
	student := Student{
		ID:        uuid.NewString(),
		Name:      core.CleanString(ns.Name),
		Class:     ns.Class,
		Fees:      []string{},
		Exams:     []string{},
		CreatedAt: core.Now(),
	}
	student, err := svc.repo.CreateStudent(ctx, student)
	return student, errors.Wrap(err, "creating student")
}

func (svc *Service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, id)
}

func (svc *Service) QueryStudents(ctx context.Context, filter StudentFilter) ([]Student, error) {
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *Service) CreateTeacher(ctx context.Context, nt NewTeacher) (Teacher, error) {
	if err := core.ValidateStruct(nt); err != nil {
		return Teacher{}, err
	}
	teacher := Teacher{
		ID:        uuid.NewString(),
		Name:      core.CleanString(nt.Name),
		Email:     core.CleanString(nt.Email, true /* lower */),
		IsActive:  nt.IsActive == nil || *nt.IsActive,
		Salaries:  []string{},
		CreatedAt: core.Now(),
	}
	teacher, err := svc.repo.CreateTeacher(ctx, teacher)
	return teacher, errors.Wrap(err, "creating teacher")
}

func (svc *Service) GetTeacher(ctx context.Context, id string) (Teacher, error) {
	return svc.repo.GetTeacher(ctx, id)
}

func (svc *Service) QueryTeachers(ctx context.Context, filter TeacherFilter) ([]Teacher, error) {
	return svc.repo.QueryTeachers(ctx, filter)
}

func (svc *Service) CreateSubject(ctx context.Context, ns NewSubject) (Subject, error) {
	if err := core.ValidateStruct(ns); err != nil {
		return Subject{}, err
	}
	if ns.Class != "" {
		if _, err := svc.repo.GetClass(ctx, ns.Class); err != nil {
			return Subject{}, err
		}
	}
	subject := Subject{
		ID:        uuid.NewString(),
		Name:      core.CleanString(ns.Name),
		Class:     ns.Class,
		CreatedAt: core.Now(),
	}
	subject, err := svc.repo.CreateSubject(ctx, subject)
	return subject, errors.Wrap(err, "creating subject")
}

func (svc *Service) GetSubject(ctx context.Context, id string) (Subject, error) {
	return svc.repo.GetSubject(ctx, id)
}

func (svc *Service) QuerySubjects(ctx context.Context, filter SubjectFilter) ([]Subject, error) {
	return svc.repo.QuerySubjects(ctx, filter)
}
