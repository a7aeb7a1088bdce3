package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/exam"
)

type examRepository struct {
	db *DB
}

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{db: db}
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	q := repo.db.builder().Insert("exams").SetMap(map[string]interface{}{
		"id":             e.ID,
		"student_id":     e.Student,
		"class_id":       e.Class,
		"teacher_id":     e.Teacher,
		"subject_id":     e.Subject,
		"exam_type":      e.ExamType,
		"date":           e.Date,
		"obtained_marks": e.ObtainedMarks,
		"total_marks":    e.TotalMarks,
		"academic_year":  e.AcademicYear,
		"created_by":     e.CreatedBy,
		"created_at":     e.CreatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err) {
			return exam.Exam{}, exam.ErrDuplicate
		}
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return e, nil
}

func (repo *examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	var e exam.Exam
	q := repo.db.builder().Select("*").From("exams").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &e, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return exam.Exam{}, exam.ErrNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "selecting exam")
	}
	e.Date = utc(e.Date)
	e.CreatedAt = utc(e.CreatedAt)
	return e, nil
}

func (repo *examRepository) QueryExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	where := sq.And{}
	for col, val := range map[string]string{
		"student_id":    filter.Student,
		"class_id":      filter.Class,
		"subject_id":    filter.Subject,
		"exam_type":     filter.ExamType,
		"academic_year": filter.AcademicYear,
	} {
		if val != "" {
			where = append(where, sq.Eq{col: val})
		}
	}

	exams := make([]exam.Exam, 0)
	q := repo.db.builder().Select("*").From("exams").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &exams, q); err != nil {
		return nil, errors.Wrap(err, "selecting exams")
	}
	for i := range exams {
		exams[i].Date = utc(exams[i].Date)
		exams[i].CreatedAt = utc(exams[i].CreatedAt)
	}
	return exams, nil
}
