package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bursar/core/exam"
)

type examRepository struct {
	db *table[exam.Exam]
}

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db.exams}
}

func (repo *examRepository) CreateExam(_ context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.rows {
		if existing.Student == e.Student && existing.Subject == e.Subject &&
			existing.ExamType == e.ExamType && existing.AcademicYear == e.AcademicYear {
			return exam.Exam{}, exam.ErrDuplicate
		}
	}
	repo.db.rows[e.ID] = &e
	return e, nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.rows[id]; ok {
		return *e, nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	exams := make([]exam.Exam, 0)
	for _, e := range repo.db.rows {
		if (filter.Student == "" || e.Student == filter.Student) &&
			(filter.Class == "" || e.Class == filter.Class) &&
			(filter.Subject == "" || e.Subject == filter.Subject) &&
			(filter.ExamType == "" || e.ExamType == filter.ExamType) &&
			(filter.AcademicYear == "" || e.AcademicYear == filter.AcademicYear) {
			exams = append(exams, *e)
		}
	}
	sortByCreation(exams, func(e exam.Exam) (time.Time, string) { return e.CreatedAt, e.ID })
	return exams, nil
}
