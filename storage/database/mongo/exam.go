package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/bursar/core/exam"
)

type examRepository struct {
	exams *mongo.Collection
}

func NewExamRepository(db *DB) exam.Repository {
	return &examRepository{exams: db.collection(examsCollection)}
}

func (repo *examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	if _, err := repo.exams.InsertOne(ctx, e); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return exam.Exam{}, exam.ErrDuplicate
		}
		return exam.Exam{}, errors.Wrap(err, "inserting exam")
	}
	return e, nil
}

func (repo *examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	var e exam.Exam
	if err := repo.exams.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		if isNotFound(err) {
			return exam.Exam{}, exam.ErrNotFound
		}
		return exam.Exam{}, errors.Wrap(err, "finding exam")
	}
	return e, nil
}

func (repo *examRepository) QueryExams(ctx context.Context, filter exam.QueryFilter) ([]exam.Exam, error) {
	f := bson.M{}
	for field, val := range map[string]string{
		"student":      filter.Student,
		"class":        filter.Class,
		"subject":      filter.Subject,
		"examType":     filter.ExamType,
		"academicYear": filter.AcademicYear,
	} {
		if val != "" {
			f[field] = val
		}
	}

	exams := make([]exam.Exam, 0)
	if err := findAll(ctx, repo.exams, f, &exams); err != nil {
		return nil, errors.Wrap(err, "finding exams")
	}
	return exams, nil
}
