package sqlxrepos

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
)

type financeRepository struct {
	db *DB
}

func NewFinanceRepository(db *DB) finance.Repository {
	return &financeRepository{db: db}
}

func normalizeEntry(e *finance.Entry) {
	e.Date = utc(e.Date)
	e.CreatedAt = utc(e.CreatedAt)
	e.UpdatedAt = utc(e.UpdatedAt)
}

func entryValues(e finance.Entry) map[string]interface{} {
	return map[string]interface{}{
		"id":                e.ID,
		"month":             e.Month,
		"year":              e.Year,
		"month_name":        e.MonthName,
		"income":            e.Income,
		"expenses":          e.Expenses,
		"debt":              e.Debt,
		"paid_fees_count":   e.PaidFeesCount,
		"unpaid_fees_count": e.UnpaidFeesCount,
		"automatic":         e.Automatic,
		"created_by":        e.CreatedBy,
		"date":              e.Date,
		"created_at":        e.CreatedAt,
		"updated_at":        e.UpdatedAt,
	}
}

func (repo *financeRepository) CreateEntry(ctx context.Context, entry finance.Entry) (finance.Entry, error) {
	q := repo.db.builder().Insert("finance_entries").SetMap(entryValues(entry))
	if _, err := exec(ctx, repo.db, q); err != nil {
		return finance.Entry{}, errors.Wrap(err, "inserting finance entry")
	}
	return entry, nil
}

func (repo *financeRepository) GetEntry(ctx context.Context, id string) (finance.Entry, error) {
	var entry finance.Entry
	q := repo.db.builder().Select("*").From("finance_entries").Where(sq.Eq{"id": id})
	if err := get(ctx, repo.db, &entry, q); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return finance.Entry{}, finance.ErrNotFound
		}
		return finance.Entry{}, errors.Wrap(err, "selecting finance entry")
	}
	normalizeEntry(&entry)
	return entry, nil
}

func (repo *financeRepository) QueryEntries(ctx context.Context, filter finance.QueryFilter) ([]finance.Entry, error) {
	where := sq.And{}
	if filter.Month != 0 {
		where = append(where, sq.Eq{"month": filter.Month})
	}
	if filter.Year != 0 {
		where = append(where, sq.Eq{"year": filter.Year})
	}
	if filter.Automatic != nil {
		where = append(where, sq.Eq{"automatic": *filter.Automatic})
	}
	if !filter.DateFrom.IsZero() {
		where = append(where, sq.GtOrEq{"date": filter.DateFrom.UTC()})
	}
	if !filter.DateTo.IsZero() {
		where = append(where, sq.Lt{"date": filter.DateTo.UTC()})
	}

	entries := make([]finance.Entry, 0)
	q := repo.db.builder().Select("*").From("finance_entries").Where(where).OrderBy(defaultOrdering...)
	if err := selectAll(ctx, repo.db, &entries, q); err != nil {
		return nil, errors.Wrap(err, "selecting finance entries")
	}
	for i := range entries {
		normalizeEntry(&entries[i])
	}
	return entries, nil
}

func (repo *financeRepository) DeleteEntry(ctx context.Context, id string) error {
	res, err := exec(ctx, repo.db, repo.db.builder().Delete("finance_entries").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting finance entry")
	}
	return affectedOrNotFound(res, finance.ErrNotFound)
}

// AddToPeriodEntry inserts the seed unless the period already has an automatic entry,
// then adds delta to the locked entry within the same transaction.
func (repo *financeRepository) AddToPeriodEntry(ctx context.Context, key period.Key, delta finance.Delta, seed *finance.Entry) (finance.Entry, error) {
	var entry finance.Entry
	err := repo.db.withTx(ctx, func(tx *sqlx.Tx) error {
		if seed != nil {
			ins := repo.db.builder().Insert("finance_entries").
				SetMap(entryValues(*seed)).
				Suffix("ON CONFLICT (month, year) WHERE " + repo.db.dialect.automatic + " DO NOTHING")
			if _, err := exec(ctx, tx, ins); err != nil {
				return errors.Wrap(err, "seeding automatic finance entry")
			}
		}

		sel := repo.db.builder().Select("*").From("finance_entries").Where(sq.Eq{
			"automatic": true,
			"month":     key.Month,
			"year":      key.Year,
		})
		if repo.db.dialect.lockRows != "" {
			sel = sel.Suffix(repo.db.dialect.lockRows)
		}
		if err := get(ctx, tx, &entry, sel); err != nil {
			if errors.Cause(err) == sql.ErrNoRows {
				return finance.ErrNotFound
			}
			return errors.Wrap(err, "selecting automatic finance entry")
		}

		delta.ApplyTo(&entry)
		entry.UpdatedAt = core.Now()
		upd := repo.db.builder().Update("finance_entries").SetMap(map[string]interface{}{
			"income":            entry.Income,
			"expenses":          entry.Expenses,
			"debt":              entry.Debt,
			"paid_fees_count":   entry.PaidFeesCount,
			"unpaid_fees_count": entry.UnpaidFeesCount,
			"updated_at":        entry.UpdatedAt,
		}).Where(sq.Eq{"id": entry.ID})
		_, err := exec(ctx, tx, upd)
		return errors.Wrap(err, "updating automatic finance entry")
	})
	if err != nil {
		return finance.Entry{}, err
	}
	normalizeEntry(&entry)
	return entry, nil
}
