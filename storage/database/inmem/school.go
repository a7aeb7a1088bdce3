package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bursar/core/school"
)

type schoolRepository struct {
	db *DB
}

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

func (repo *schoolRepository) CreateClass(_ context.Context, class school.Class) (school.Class, error) {
	t := repo.db.classes
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.rows[class.ID] = &class
	return class, nil
}

func (repo *schoolRepository) GetClass(_ context.Context, id string) (school.Class, error) {
	t := repo.db.classes
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if class, ok := t.rows[id]; ok {
		return *class, nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *schoolRepository) QueryClasses(_ context.Context) ([]school.Class, error) {
	t := repo.db.classes
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	classes := t.all()
	sortByCreation(classes, func(c school.Class) (time.Time, string) { return c.CreatedAt, c.ID })
	return classes, nil
}

func (repo *schoolRepository) CreateStudent(_ context.Context, student school.Student) (school.Student, error) {
	t := repo.db.students
	t.mutex.Lock()
	defer t.mutex.Unlock()

	student.Fees = cloneStrings(student.Fees)
	student.Exams = cloneStrings(student.Exams)
	t.rows[student.ID] = &student
	return student, nil
}

func (repo *schoolRepository) GetStudent(_ context.Context, id string) (school.Student, error) {
	t := repo.db.students
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if student, ok := t.rows[id]; ok {
		return copyStudent(*student), nil
	}
	return school.Student{}, school.ErrStudentNotFound
}

func (repo *schoolRepository) QueryStudents(_ context.Context, filter school.StudentFilter) ([]school.Student, error) {
	t := repo.db.students
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	students := make([]school.Student, 0)
	for _, s := range t.rows {
		if filter.Class != "" && s.Class != filter.Class {
			continue
		}
		students = append(students, copyStudent(*s))
	}
	sortByCreation(students, func(s school.Student) (time.Time, string) { return s.CreatedAt, s.ID })
	return students, nil
}

func (repo *schoolRepository) CreateTeacher(_ context.Context, teacher school.Teacher) (school.Teacher, error) {
	t := repo.db.teachers
	t.mutex.Lock()
	defer t.mutex.Unlock()

	teacher.Salaries = cloneStrings(teacher.Salaries)
	t.rows[teacher.ID] = &teacher
	return teacher, nil
}

func (repo *schoolRepository) GetTeacher(_ context.Context, id string) (school.Teacher, error) {
	t := repo.db.teachers
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if teacher, ok := t.rows[id]; ok {
		tchr := *teacher
		tchr.Salaries = cloneStrings(tchr.Salaries)
		return tchr, nil
	}
	return school.Teacher{}, school.ErrTeacherNotFound
}

func (repo *schoolRepository) QueryTeachers(_ context.Context, filter school.TeacherFilter) ([]school.Teacher, error) {
	t := repo.db.teachers
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	teachers := make([]school.Teacher, 0)
	for _, tchr := range t.rows {
		if filter.IsActive != nil && tchr.IsActive != *filter.IsActive {
			continue
		}
		teacher := *tchr
		teacher.Salaries = cloneStrings(teacher.Salaries)
		teachers = append(teachers, teacher)
	}
	sortByCreation(teachers, func(tchr school.Teacher) (time.Time, string) { return tchr.CreatedAt, tchr.ID })
	return teachers, nil
}

func (repo *schoolRepository) CreateSubject(_ context.Context, subject school.Subject) (school.Subject, error) {
	t := repo.db.subjects
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.rows[subject.ID] = &subject
	return subject, nil
}

func (repo *schoolRepository) GetSubject(_ context.Context, id string) (school.Subject, error) {
	t := repo.db.subjects
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	if subject, ok := t.rows[id]; ok {
		return *subject, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *schoolRepository) QuerySubjects(_ context.Context, filter school.SubjectFilter) ([]school.Subject, error) {
	t := repo.db.subjects
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	subjects := make([]school.Subject, 0)
	for _, s := range t.rows {
		if filter.Class != "" && s.Class != filter.Class {
			continue
		}
		subjects = append(subjects, *s)
	}
	sortByCreation(subjects, func(s school.Subject) (time.Time, string) { return s.CreatedAt, s.ID })
	return subjects, nil
}

func (repo *schoolRepository) AddStudentFee(_ context.Context, studentID, feeID string) error {
	t := repo.db.students
	t.mutex.Lock()
	defer t.mutex.Unlock()

	student, ok := t.rows[studentID]
	if !ok {
		return school.ErrStudentNotFound
	}
	student.Fees = appendUnique(student.Fees, feeID)
	return nil
}

func (repo *schoolRepository) AddStudentExam(_ context.Context, studentID, examID string) error {
	t := repo.db.students
	t.mutex.Lock()
	defer t.mutex.Unlock()

	student, ok := t.rows[studentID]
	if !ok {
		return school.ErrStudentNotFound
	}
	student.Exams = appendUnique(student.Exams, examID)
	return nil
}

func (repo *schoolRepository) AddTeacherSalary(_ context.Context, teacherID, salaryID string) error {
	t := repo.db.teachers
	t.mutex.Lock()
	defer t.mutex.Unlock()

	teacher, ok := t.rows[teacherID]
	if !ok {
		return school.ErrTeacherNotFound
	}
	teacher.Salaries = appendUnique(teacher.Salaries, salaryID)
	return nil
}

func copyStudent(s school.Student) school.Student {
	s.Fees = cloneStrings(s.Fees)
	s.Exams = cloneStrings(s.Exams)
	return s
}
