package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/trezcool/bursar/core/familyfee"
)

type familyFeeRepository struct {
	db *table[familyfee.FamilyFee]
}

func NewFamilyFeeRepository(db *DB) familyfee.Repository {
	return &familyFeeRepository{db: db.familyFees}
}

func copyFamilyFee(ff familyfee.FamilyFee) familyfee.FamilyFee {
	ff.Students = append([]familyfee.Member{}, ff.Students...)
	return ff
}

func (repo *familyFeeRepository) CreateFamilyFee(_ context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.rows {
		if existing.FamilyName == ff.FamilyName && existing.Month == ff.Month && existing.Year == ff.Year {
			return familyfee.FamilyFee{}, familyfee.ErrDuplicate
		}
	}
	ff = copyFamilyFee(ff)
	repo.db.rows[ff.ID] = &ff
	return copyFamilyFee(ff), nil
}

func (repo *familyFeeRepository) GetFamilyFee(_ context.Context, id string) (familyfee.FamilyFee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ff, ok := repo.db.rows[id]; ok {
		return copyFamilyFee(*ff), nil
	}
	return familyfee.FamilyFee{}, familyfee.ErrNotFound
}

func (repo *familyFeeRepository) QueryFamilyFees(_ context.Context, filter familyfee.QueryFilter) ([]familyfee.FamilyFee, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	ffs := make([]familyfee.FamilyFee, 0)
	for _, ff := range repo.db.rows {
		if matchFamilyFee(*ff, filter) {
			ffs = append(ffs, copyFamilyFee(*ff))
		}
	}
	sortByCreation(ffs, func(ff familyfee.FamilyFee) (time.Time, string) { return ff.CreatedAt, ff.ID })
	return ffs, nil
}

func matchFamilyFee(ff familyfee.FamilyFee, filter familyfee.QueryFilter) bool {
	if filter.FamilyName != "" && !strings.EqualFold(ff.FamilyName, filter.FamilyName) {
		return false
	}
	if filter.Student != "" {
		var member bool
		for _, m := range ff.Students {
			if m.Student == filter.Student {
				member = true
				break
			}
		}
		if !member {
			return false
		}
	}
	return (filter.Month == 0 || ff.Month == filter.Month) &&
		(filter.Year == 0 || ff.Year == filter.Year) &&
		(filter.Paid == nil || ff.Paid == *filter.Paid)
}

func (repo *familyFeeRepository) UpdateFamilyFee(_ context.Context, ff familyfee.FamilyFee) (familyfee.FamilyFee, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.rows[ff.ID]
	if !ok {
		return familyfee.FamilyFee{}, familyfee.ErrNotFound
	}
	orig.PaidAmount = ff.PaidAmount
	orig.Paid = ff.Paid
	orig.PaidDate = ff.PaidDate
	orig.PaymentMethod = ff.PaymentMethod
	orig.Note = ff.Note
	orig.UpdatedAt = ff.UpdatedAt
	return copyFamilyFee(*orig), nil
}

func (repo *familyFeeRepository) DeleteFamilyFee(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return familyfee.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
