package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/salary"
)

type salaryRepository struct {
	db *DB
}

func NewSalaryRepository(db *DB) salary.Repository {
	return &salaryRepository{db: db}
}

func normalizeSalary(s *salary.Salary) {
	s.PaidDate = utcPtr(s.PaidDate)
	s.CreatedAt = utc(s.CreatedAt)
	s.UpdatedAt = utc(s.UpdatedAt)
}

func (repo *salaryRepository) CreateSalary(ctx context.Context, sal salary.Salary) (salary.Salary, error) {
	q := repo.db.builder().Insert("salaries").SetMap(map[string]interface{}{
		"id":           sal.ID,
		"teacher_id":   sal.Teacher,
		"amount":       sal.Amount,
		"month":        sal.Month,
		"year":         sal.Year,
		"bonus":        sal.Bonus,
		"deductions":   sal.Deductions,
		"total_amount": sal.TotalAmount,
		"paid":         sal.Paid,
		"paid_date":    sal.PaidDate,
		"note":         sal.Note,
		"created_by":   sal.CreatedBy,
		"created_at":   sal.CreatedAt,
		"updated_at":   sal.UpdatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err) {
			return salary.Salary{}, salary.ErrDuplicate
		}
		return salary.Salary{}, errors.Wrap(err, "inserting salary")
	}
	return sal, nil
}

func (repo *salaryRepository) GetSalary(ctx context.Context, id string) (salary.Salary, error) {
	var sal salary.Salary
	q := repo.db.builder().Select("*").From("salaries").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &sal, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return salary.Salary{}, salary.ErrNotFound
		}
		return salary.Salary{}, errors.Wrap(err, "selecting salary")
	}
	normalizeSalary(&sal)
	return sal, nil
}

func (repo *salaryRepository) QuerySalaries(ctx context.Context, filter salary.QueryFilter) ([]salary.Salary, error) {
	where := sq.And{}
	if filter.Teacher != "" {
		where = append(where, sq.Eq{"teacher_id": filter.Teacher})
	}
	if filter.Month != 0 {
		where = append(where, sq.Eq{"month": filter.Month})
	}
	if filter.Year != 0 {
		where = append(where, sq.Eq{"year": filter.Year})
	}
	if filter.Paid != nil {
		where = append(where, sq.Eq{"paid": *filter.Paid})
	}

	salaries := make([]salary.Salary, 0)
	q := repo.db.builder().Select("*").From("salaries").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &salaries, q); err != nil {
		return nil, errors.Wrap(err, "selecting salaries")
	}
	for i := range salaries {
		normalizeSalary(&salaries[i])
	}
	return salaries, nil
}

func (repo *salaryRepository) UpdateSalary(ctx context.Context, sal salary.Salary) (salary.Salary, error) {
	q := repo.db.builder().Update("salaries").SetMap(map[string]interface{}{
		"amount":       sal.Amount,
		"bonus":        sal.Bonus,
		"deductions":   sal.Deductions,
		"total_amount": sal.TotalAmount,
		"paid":         sal.Paid,
		"paid_date":    sal.PaidDate,
		"note":         sal.Note,
		"updated_at":   sal.UpdatedAt,
	}).Where(sq.Eq{"id": sal.ID})
	res, err := exec(ctx, repo.db, q)
	if err != nil {
		return salary.Salary{}, errors.Wrap(err, "updating salary")
	}
	if err = affectedOrNotFound(res, salary.ErrNotFound); err != nil {
		return salary.Salary{}, err
	}
	return repo.GetSalary(ctx, sal.ID)
}

func (repo *salaryRepository) DeleteSalary(ctx context.Context, id string) error {
	res, err := exec(ctx, repo.db, repo.db.builder().Delete("salaries").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting salary")
	}
	return affectedOrNotFound(res, salary.ErrNotFound)
}
