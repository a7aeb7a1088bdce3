package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core/familyfee"
)

type familyFeeRepository struct {
	db *DB
}

func NewFamilyFeeRepository(db *DB) familyfee.Repository {
	return &familyFeeRepository{db: db}
}

type memberRow struct {
	FamilyFeeID string `db:"family_fee_id"`
	familyfee.Member
}

func normalizeFamilyFee(ff *familyfee.FamilyFee) {
	ff.PaidDate = utcPtr(ff.PaidDate)
	ff.DueDate = utc(ff.DueDate)
	ff.CreatedAt = utc(ff.CreatedAt)
	ff.UpdatedAt = utc(ff.UpdatedAt)
}

func (repo *familyFeeRepository) CreateFamilyFee(ctx context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	err := repo.db.withTx(ctx, func(tx *sqlx.Tx) error {
		q := repo.db.builder().Insert("family_fees").SetMap(map[string]interface{}{
			"id":             ff.ID,
			"family_name":    ff.FamilyName,
			"total_amount":   ff.TotalAmount,
			"paid_amount":    ff.PaidAmount,
			"month":          ff.Month,
			"year":           ff.Year,
			"paid":           ff.Paid,
			"paid_date":      ff.PaidDate,
			"payment_method": ff.PaymentMethod,
			"due_date":       ff.DueDate,
			"note":           ff.Note,
			"created_by":     ff.CreatedBy,
			"created_at":     ff.CreatedAt,
			"updated_at":     ff.UpdatedAt,
		})
		if _, err := exec(ctx, tx, q); err != nil {
			if isUniqueViolation(err) {
				return familyfee.ErrDuplicate
			}
			return errors.Wrap(err, "inserting family fee")
		}

		members := repo.db.builder().Insert("family_fee_members").
			Columns("family_fee_id", "student_id", "is_paying", "position")
		for i, m := range ff.Students {
			members = members.Values(ff.ID, m.Student, m.IsPaying, i)
		}
		_, err := exec(ctx, tx, members)
		return errors.Wrap(err, "inserting family fee members")
	})
	if err != nil {
		return familyfee.FamilyFee{}, err
	}
	return ff, nil
}

func (repo *familyFeeRepository) GetFamilyFee(ctx context.Context, id string) (familyfee.FamilyFee, error) {
	ffs, err := repo.query(ctx, sq.Eq{"id": id})
	if err != nil {
		return familyfee.FamilyFee{}, err
	}
	if len(ffs) == 0 {
		return familyfee.FamilyFee{}, familyfee.ErrNotFound
	}
	return ffs[0], nil
}

func (repo *familyFeeRepository) QueryFamilyFees(ctx context.Context, filter familyfee.QueryFilter) ([]familyfee.FamilyFee, error) {
	where := sq.And{}
	if filter.FamilyName != "" {
		where = append(where, sq.Expr("LOWER(family_name) = LOWER(?)", filter.FamilyName))
	}
	if filter.Student != "" {
		where = append(where, sq.Expr("id IN (SELECT family_fee_id FROM family_fee_members WHERE student_id = ?)", filter.Student))
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
	return repo.query(ctx, where)
}

func (repo *familyFeeRepository) query(ctx context.Context, where sq.Sqlizer) ([]familyfee.FamilyFee, error) {
	ffs := make([]familyfee.FamilyFee, 0)
	q := repo.db.builder().Select("*").From("family_fees").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &ffs, q); err != nil {
		return nil, errors.Wrap(err, "selecting family fees")
	}
	if len(ffs) == 0 {
		return ffs, nil
	}

	ids := make([]string, len(ffs))
	for i, ff := range ffs {
		ids[i] = ff.ID
	}
	var rows []memberRow
	mq := repo.db.builder().
		Select("family_fee_id", "student_id", "is_paying").
		From("family_fee_members").
		Where(sq.Eq{"family_fee_id": ids}).
		OrderBy("family_fee_id", "position")
	if err := selectAll(ctx, repo.db, &rows, mq); err != nil {
		return nil, errors.Wrap(err, "selecting family fee members")
	}
	members := make(map[string][]familyfee.Member, len(ffs))
	for _, r := range rows {
		members[r.FamilyFeeID] = append(members[r.FamilyFeeID], r.Member)
	}

	for i := range ffs {
		ff := &ffs[i]
		normalizeFamilyFee(ff)
		ff.Students = members[ff.ID]
		if ff.Students == nil {
			ff.Students = []familyfee.Member{}
		}
	}
	return ffs, nil
}

func (repo *familyFeeRepository) UpdateFamilyFee(ctx context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	q := repo.db.builder().Update("family_fees").SetMap(map[string]interface{}{
		"paid_amount":    ff.PaidAmount,
		"paid":           ff.Paid,
		"paid_date":      ff.PaidDate,
		"payment_method": ff.PaymentMethod,
		"note":           ff.Note,
		"updated_at":     ff.UpdatedAt,
	}).Where(sq.Eq{"id": ff.ID})
	res, err := exec(ctx, repo.db, q)
	if err != nil {
		return familyfee.FamilyFee{}, errors.Wrap(err, "updating family fee")
	}
	if err = affectedOrNotFound(res, familyfee.ErrNotFound); err != nil {
		return familyfee.FamilyFee{}, err
	}
	return repo.GetFamilyFee(ctx, ff.ID)
}

func (repo *familyFeeRepository) DeleteFamilyFee(ctx context.Context, id string) error {
	return repo.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := exec(ctx, tx, repo.db.builder().Delete("family_fee_members").Where(sq.Eq{"family_fee_id": id})); err != nil {
			return errors.Wrap(err, "deleting family fee members")
		}
		res, err := exec(ctx, tx, repo.db.builder().Delete("family_fees").Where(sq.Eq{"id": id}))
		if err != nil {
			return errors.Wrap(err, "deleting family fee")
		}
		return affectedOrNotFound(res, familyfee.ErrNotFound)
	})
}
