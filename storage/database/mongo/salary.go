package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/trezcool/bursar/core/salary"
)

type salaryRepository struct {
	salaries *mongo.Collection
}

func NewSalaryRepository(db *DB) salary.Repository {
	return &salaryRepository{salaries: db.collection(salariesCollection)}
}

func (repo *salaryRepository) CreateSalary(ctx context.Context, sal salary.Salary) (salary.Salary, error) {
	if _, err := repo.salaries.InsertOne(ctx, sal); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return salary.Salary{}, salary.ErrDuplicate
		}
		return salary.Salary{}, errors.Wrap(err, "inserting salary")
	}
	return sal, nil
}

func (repo *salaryRepository) GetSalary(ctx context.Context, id string) (salary.Salary, error) {
	var sal salary.Salary
	if err := repo.salaries.FindOne(ctx, bson.M{"_id": id}).Decode(&sal); err != nil {
		if isNotFound(err) {
			return salary.Salary{}, salary.ErrNotFound
		}
		return salary.Salary{}, errors.Wrap(err, "finding salary")
	}
	return sal, nil
}

func (repo *salaryRepository) QuerySalaries(ctx context.Context, filter salary.QueryFilter) ([]salary.Salary, error) {
	f := bson.M{}
	if filter.Teacher != "" {
		f["teacher"] = filter.Teacher
	}
	if filter.Month != 0 {
		f["month"] = filter.Month
	}
	if filter.Year != 0 {
		f["year"] = filter.Year
	}
	if filter.Paid != nil {
		f["paid"] = *filter.Paid
	}

	salaries := make([]salary.Salary, 0)
	if err := findAll(ctx, repo.salaries, f, &salaries); err != nil {
		return nil, errors.Wrap(err, "finding salaries")
	}
	return salaries, nil
}

func (repo *salaryRepository) UpdateSalary(ctx context.Context, sal salary.Salary) (salary.Salary, error) {
	res, err := repo.salaries.UpdateOne(ctx, bson.M{"_id": sal.ID}, bson.M{"$set": bson.M{
		"amount":      sal.Amount,
		"bonus":       sal.Bonus,
		"deductions":  sal.Deductions,
		"totalAmount": sal.TotalAmount,
		"paid":        sal.Paid,
		"paidDate":    sal.PaidDate,
		"note":        sal.Note,
		"updatedAt":   sal.UpdatedAt,
	}})
	if err != nil {
		return salary.Salary{}, errors.Wrap(err, "updating salary")
	}
	if res.MatchedCount == 0 {
		return salary.Salary{}, salary.ErrNotFound
	}
	return repo.GetSalary(ctx, sal.ID)
}

func (repo *salaryRepository) DeleteSalary(ctx context.Context, id string) error {
	return deleteByID(ctx, repo.salaries, id, salary.ErrNotFound)
}
