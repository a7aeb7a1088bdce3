package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bursar/core/salary"
)

type salaryRepository struct {
	db *table[salary.Salary]
}

func NewSalaryRepository(db *DB) salary.Repository {
	return &salaryRepository{db: db.salaries}
}

func (repo *salaryRepository) CreateSalary(_ context.Context, sal salary.Salary) (salary.Salary, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.rows {
		if existing.Teacher == sal.Teacher && existing.Month == sal.Month && existing.Year == sal.Year {
			return salary.Salary{}, salary.ErrDuplicate
		}
	}
	repo.db.rows[sal.ID] = &sal
	return sal, nil
}

func (repo *salaryRepository) GetSalary(_ context.Context, id string) (salary.Salary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if sal, ok := repo.db.rows[id]; ok {
		return *sal, nil
	}
	return salary.Salary{}, salary.ErrNotFound
}

func (repo *salaryRepository) QuerySalaries(_ context.Context, filter salary.QueryFilter) ([]salary.Salary, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	salaries := make([]salary.Salary, 0)
	for _, s := range repo.db.rows {
		if (filter.Teacher == "" || s.Teacher == filter.Teacher) &&
			(filter.Month == 0 || s.Month == filter.Month) &&
			(filter.Year == 0 || s.Year == filter.Year) &&
			(filter.Paid == nil || s.Paid == *filter.Paid) {
			salaries = append(salaries, *s)
		}
	}
	sortByCreation(salaries, func(s salary.Salary) (time.Time, string) { return s.CreatedAt, s.ID })
	return salaries, nil
}

func (repo *salaryRepository) UpdateSalary(_ context.Context, sal salary.Salary) (salary.Salary, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.rows[sal.ID]
	if !ok {
		return salary.Salary{}, salary.ErrNotFound
	}
	orig.Amount = sal.Amount
	orig.Bonus = sal.Bonus
	orig.Deductions = sal.Deductions
	orig.TotalAmount = sal.TotalAmount
	orig.Paid = sal.Paid
	orig.PaidDate = sal.PaidDate
	orig.Note = sal.Note
	orig.UpdatedAt = sal.UpdatedAt
	return *orig, nil
}

func (repo *salaryRepository) DeleteSalary(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return salary.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
