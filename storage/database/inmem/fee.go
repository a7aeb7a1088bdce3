package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bursar/core/fee"
)

type feeRepository struct {
	db *table[fee.Fee]
}

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db.fees}
}

func (repo *feeRepository) CreateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.rows {
		if existing.Student == f.Student && existing.Month == f.Month && existing.Year == f.Year {
			return fee.Fee{}, fee.ErrDuplicate
		}
	}
	repo.db.rows[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) GetFee(_ context.Context, id string) (fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if f, ok := repo.db.rows[id]; ok {
		return *f, nil
	}
	return fee.Fee{}, fee.ErrNotFound
}

func (repo *feeRepository) QueryFees(_ context.Context, filter fee.QueryFilter) ([]fee.Fee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	fees := make([]fee.Fee, 0)
	for _, f := range repo.db.rows {
		if matchFee(*f, filter) {
			fees = append(fees, *f)
		}
	}
	sortByCreation(fees, func(f fee.Fee) (time.Time, string) { return f.CreatedAt, f.ID })
	return fees, nil
}

func matchFee(f fee.Fee, filter fee.QueryFilter) bool {
	return (filter.Student == "" || f.Student == filter.Student) &&
		(filter.Class == "" || f.Class == filter.Class) &&
		(filter.Month == 0 || f.Month == filter.Month) &&
		(filter.Year == 0 || f.Year == filter.Year) &&
		(filter.Paid == nil || f.Paid == *filter.Paid)
}

func (repo *feeRepository) UpdateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.rows[f.ID]
	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	orig.Paid = f.Paid
	orig.PaidDate = f.PaidDate
	orig.Note = f.Note
	orig.UpdatedAt = f.UpdatedAt
	return *orig, nil
}

func (repo *feeRepository) DeleteFee(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return fee.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
