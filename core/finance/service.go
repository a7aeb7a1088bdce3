// Package finance maintains the monthly finance ledger and derives monthly summaries.
package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/salary"
)

var ErrNotFound = core.NewNotFoundError("Finance record not found")

type Repository interface {
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	GetEntry(ctx context.Context, id string) (Entry, error)
	QueryEntries(ctx context.Context, filter QueryFilter) ([]Entry, error)
	DeleteEntry(ctx context.Context, id string) error

	// AddToPeriodEntry adds delta to the automatic entry of key in a single store operation.
	// When no automatic entry exists, seed is inserted with delta as its amounts,
	// or ErrNotFound is returned if seed is nil.
	AddToPeriodEntry(ctx context.Context, key period.Key, delta Delta, seed *Entry) (Entry, error)
}

// FeeSource lists fee obligations.
type FeeSource interface {
	QueryFees(ctx context.Context, filter fee.QueryFilter) ([]fee.Fee, error)
}

// SalarySource lists salary obligations.
type SalarySource interface {
	QuerySalaries(ctx context.Context, filter salary.QueryFilter) ([]salary.Salary, error)
}

type Service struct {
	repo     Repository
	fees     FeeSource
	salaries SalarySource
	events   core.EventPublisher
	logger   core.Logger
}

func NewService(repo Repository, fees FeeSource, salaries SalarySource, events core.EventPublisher, logger core.Logger) *Service {
	if events == nil {
		events = core.DiscardEvents
	}
	return &Service{repo: repo, fees: fees, salaries: salaries, events: events, logger: logger}
}

// AddManualEntry records a manual ledger row dated at ne.Date or now.
func (svc *Service) AddManualEntry(ctx context.Context, ne NewEntry, actor core.Actor) (Entry, error) {
	if err := core.ValidateStruct(ne); err != nil {
		return Entry{}, err
	}
	now := core.Now()
	date := now
	if ne.Date != nil {
		date = ne.Date.UTC()
	}
	key := period.KeyOf(date)
	entry := Entry{
		ID:        uuid.NewString(),
		Month:     key.Month,
		Year:      key.Year,
		MonthName: key.MonthName(),
		Income:    ne.Income,
		Expenses:  ne.Expenses,
		Debt:      ne.Debt,
		CreatedBy: actor.ID,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
	entry, err := svc.repo.CreateEntry(ctx, entry)
	return entry, errors.Wrap(err, "creating finance record")
}

// ApplyDelta adds delta to the automatic entry of key, creating it first when absent.
func (svc *Service) ApplyDelta(ctx context.Context, key period.Key, delta Delta, actor core.Actor) (Entry, error) {
	if err := key.Validate(); err != nil {
		return Entry{}, core.NewValidationError(err)
	}
	now := core.Now()
	seed := Entry{
		ID:        uuid.NewString(),
		Month:     key.Month,
		Year:      key.Year,
		MonthName: key.MonthName(),
		Income:    decimal.Zero,
		Expenses:  decimal.Zero,
		Debt:      decimal.Zero,
		Automatic: true,
		CreatedBy: actor.ID,
		Date:      now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	entry, err := svc.repo.AddToPeriodEntry(ctx, key, delta, &seed)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "applying ledger delta to %s", key)
	}
	svc.publish(ctx, entry, delta, actor)
	return entry, nil
}

// ReverseDelta subtracts delta from the automatic entry of key, if it still exists.
// Amounts are not floored at zero.
func (svc *Service) ReverseDelta(ctx context.Context, key period.Key, delta Delta, actor core.Actor) (Entry, bool, error) {
	neg := delta.Neg()
	entry, err := svc.repo.AddToPeriodEntry(ctx, key, neg, nil)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Entry{}, false, nil
		}
		return Entry{}, false, errors.Wrapf(err, "reversing ledger delta of %s", key)
	}
	svc.publish(ctx, entry, neg, actor)
	return entry, true, nil
}

func (svc *Service) publish(ctx context.Context, entry Entry, delta Delta, actor core.Actor) {
	evt := core.NewEvent(core.EventLedgerUpdated, entry.ID, entry.Month, entry.Year, delta)
	if err := svc.events.Publish(ctx, evt); err != nil {
		svc.logger.Error("publishing ledger event", err, actor)
	}
}

func (svc *Service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}

// Summary sums the paid fees, paid salaries and manual entries of a calendar month.
func (svc *Service) Summary(ctx context.Context, key period.Key) (Summary, error) {
	if err := key.Validate(); err != nil {
		return Summary{}, core.NewValidationError(err)
	}

	fees, err := svc.fees.QueryFees(ctx, fee.QueryFilter{Month: key.Month, Year: key.Year})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying fees")
	}
	paid := true
	salaries, err := svc.salaries.QuerySalaries(ctx, salary.QueryFilter{Month: key.Month, Year: key.Year, Paid: &paid})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying salaries")
	}
	start, end := key.Bounds()
	manual := false
	entries, err := svc.repo.QueryEntries(ctx, QueryFilter{Automatic: &manual, DateFrom: start, DateTo: end})
	if err != nil {
		return Summary{}, errors.Wrap(err, "querying finance records")
	}
	return summarize(key, fees, salaries, entries), nil
}

func summarize(key period.Key, fees []fee.Fee, salaries []salary.Salary, entries []Entry) Summary {
	sum := Summary{
		Month:     key.Month,
		Year:      key.Year,
		MonthName: key.MonthName(),
		Income: IncomeSummary{
			StudentFees: decimal.Zero,
			Manual:      decimal.Zero,
		},
		Expenses: ExpensesSummary{
			TeacherSalaries: decimal.Zero,
			Manual:          decimal.Zero,
		},
		Debt:          decimal.Zero,
		ManualRecords: entries,
	}
	for _, f := range fees {
		if f.Paid {
			sum.PaidFeesCount++
			sum.Income.StudentFees = sum.Income.StudentFees.Add(f.Amount)
		} else {
			sum.UnpaidFeesCount++
		}
	}
	for _, s := range salaries {
		sum.Expenses.TeacherSalaries = sum.Expenses.TeacherSalaries.Add(s.TotalAmount)
	}
	for _, e := range entries {
		sum.Income.Manual = sum.Income.Manual.Add(e.Income)
		sum.Expenses.Manual = sum.Expenses.Manual.Add(e.Expenses)
		sum.Debt = sum.Debt.Add(e.Debt)
	}
	sum.Income.Total = sum.Income.StudentFees.Add(sum.Income.Manual)
	sum.Expenses.Total = sum.Expenses.TeacherSalaries.Add(sum.Expenses.Manual)
	sum.NetIncome = sum.Income.Total.Sub(sum.Expenses.Total).Sub(sum.Debt)
	return sum
}
