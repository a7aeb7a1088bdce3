package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
)

type financeRepository struct {
	db *table[finance.Entry]
}

func NewFinanceRepository(db *DB) finance.Repository {
	return &financeRepository{db: db.financeEntries}
}

func (repo *financeRepository) CreateEntry(_ context.Context, entry finance.Entry) (finance.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.rows[entry.ID] = &entry
	return entry, nil
}

func (repo *financeRepository) GetEntry(_ context.Context, id string) (finance.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if entry, ok := repo.db.rows[id]; ok {
		return *entry, nil
	}
	return finance.Entry{}, finance.ErrNotFound
}

func (repo *financeRepository) QueryEntries(_ context.Context, filter finance.QueryFilter) ([]finance.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := make([]finance.Entry, 0)
	for _, e := range repo.db.rows {
		if (filter.Month == 0 || e.Month == filter.Month) &&
			(filter.Year == 0 || e.Year == filter.Year) &&
			(filter.Automatic == nil || e.Automatic == *filter.Automatic) &&
			(filter.DateFrom.IsZero() || !e.Date.Before(filter.DateFrom)) &&
			(filter.DateTo.IsZero() || e.Date.Before(filter.DateTo)) {
			entries = append(entries, *e)
		}
	}
	sortByCreation(entries, func(e finance.Entry) (time.Time, string) { return e.CreatedAt, e.ID })
	return entries, nil
}

func (repo *financeRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return finance.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *financeRepository) AddToPeriodEntry(_ context.Context, key period.Key, delta finance.Delta, seed *finance.Entry) (finance.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var entry *finance.Entry
	for _, e := range repo.db.rows {
		if e.Automatic && e.Month == key.Month && e.Year == key.Year {
			entry = e
			break
		}
	}
	if entry == nil {
		if seed == nil {
			return finance.Entry{}, finance.ErrNotFound
		}
		e := *seed
		entry = &e
		repo.db.rows[entry.ID] = entry
	}
	delta.ApplyTo(entry)
	entry.UpdatedAt = core.Now()
	return *entry, nil
}
