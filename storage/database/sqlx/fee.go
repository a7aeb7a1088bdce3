package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/fee"
)

type feeRepository struct {
	db *DB
}

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func normalizeFee(f *fee.Fee) {
	f.PaidDate = utcPtr(f.PaidDate)
	f.DueDate = utc(f.DueDate)
	f.CreatedAt = utc(f.CreatedAt)
	f.UpdatedAt = utc(f.UpdatedAt)
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	q := repo.db.builder().Insert("fees").SetMap(map[string]interface{}{
		"id":         f.ID,
		"student_id": f.Student,
		"class_id":   f.Class,
		"amount":     f.Amount,
		"month":      f.Month,
		"year":       f.Year,
		"paid":       f.Paid,
		"paid_date":  f.PaidDate,
		"due_date":   f.DueDate,
		"note":       f.Note,
		"created_by": f.CreatedBy,
		"created_at": f.CreatedAt,
		"updated_at": f.UpdatedAt,
	})
	if _, err := exec(ctx, repo.db, q); err != nil {
		if isUniqueViolation(err) {
			return fee.Fee{}, fee.ErrDuplicate
		}
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return f, nil
}

func (repo *feeRepository) GetFee(ctx context.Context, id string) (fee.Fee, error) {
	var f fee.Fee
	q := repo.db.builder().Select("*").From("fees").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &f, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "selecting fee")
	}
	normalizeFee(&f)
	return f, nil
}

func (repo *feeRepository) QueryFees(ctx context.Context, filter fee.QueryFilter) ([]fee.Fee, error) {
	where := sq.And{}
	if filter.Student != "" {
		where = append(where, sq.Eq{"student_id": filter.Student})
	}
	if filter.Class != "" {
		where = append(where, sq.Eq{"class_id": filter.Class})
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

	fees := make([]fee.Fee, 0)
	q := repo.db.builder().Select("*").From("fees").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &fees, q); err != nil {
		return nil, errors.Wrap(err, "selecting fees")
	}
	for i := range fees {
		normalizeFee(&fees[i])
	}
	return fees, nil
}

func (repo *feeRepository) UpdateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	q := repo.db.builder().Update("fees").SetMap(map[string]interface{}{
		"paid":       f.Paid,
		"paid_date":  f.PaidDate,
		"note":       f.Note,
		"updated_at": f.UpdatedAt,
	}).Where(sq.Eq{"id": f.ID})
	res, err := exec(ctx, repo.db, q)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "updating fee")
	}
	if err = affectedOrNotFound(res, fee.ErrNotFound); err != nil {
		return fee.Fee{}, err
	}
	return repo.GetFee(ctx, f.ID)
}

func (repo *feeRepository) DeleteFee(ctx context.Context, id string) error {
	res, err := exec(ctx, repo.db, repo.db.builder().Delete("fees").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting fee")
	}
	return affectedOrNotFound(res, fee.ErrNotFound)
}
