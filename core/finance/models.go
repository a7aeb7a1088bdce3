package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Entry is a finance ledger row.
// Manual entries are independent rows; at most one automatic entry exists per (month, year),
// maintained through ledger deltas only.
type Entry struct {
	ID              string          `json:"id" bson:"_id" db:"id"`
	Month           int             `json:"month" bson:"month" db:"month"`
	Year            int             `json:"year" bson:"year" db:"year"`
	MonthName       string          `json:"monthName" bson:"monthName" db:"month_name"`
	Income          decimal.Decimal `json:"income" bson:"income" db:"income"`
	Expenses        decimal.Decimal `json:"expenses" bson:"expenses" db:"expenses"`
	Debt            decimal.Decimal `json:"debt" bson:"debt" db:"debt"`
	PaidFeesCount   int             `json:"paidFeesCount" bson:"paidFeesCount" db:"paid_fees_count"`
	UnpaidFeesCount int             `json:"unpaidFeesCount" bson:"unpaidFeesCount" db:"unpaid_fees_count"`
	Automatic       bool            `json:"automatic" bson:"automatic" db:"automatic"`
	CreatedBy       string          `json:"createdBy" bson:"createdBy" db:"created_by"`
	Date            time.Time       `json:"date" bson:"date" db:"date"`                 // UTC
	CreatedAt       time.Time       `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
	UpdatedAt       time.Time       `json:"updatedAt" bson:"updatedAt" db:"updated_at"` // UTC
}

// NewEntry is a manually entered ledger row.
// Zero amounts are rejected like missing ones.
type NewEntry struct {
	Income   decimal.Decimal `json:"income" validate:"required,gte=0"`
	Expenses decimal.Decimal `json:"expenses" validate:"required,gte=0"`
	Debt     decimal.Decimal `json:"debt" validate:"required,gte=0"`
	Date     *time.Time      `json:"date"` // defaults to now
}

// Delta is added to the automatic entry of a period.
type Delta struct {
	Income          decimal.Decimal `json:"income"`
	Expenses        decimal.Decimal `json:"expenses"`
	Debt            decimal.Decimal `json:"debt"`
	PaidFeesCount   int             `json:"paidFeesCount"`
	UnpaidFeesCount int             `json:"unpaidFeesCount"`
}

func (d Delta) Neg() Delta {
	return Delta{
		Income:          d.Income.Neg(),
		Expenses:        d.Expenses.Neg(),
		Debt:            d.Debt.Neg(),
		PaidFeesCount:   -d.PaidFeesCount,
		UnpaidFeesCount: -d.UnpaidFeesCount,
	}
}

// ApplyTo adds d to e.
func (d Delta) ApplyTo(e *Entry) {
	e.Income = e.Income.Add(d.Income)
	e.Expenses = e.Expenses.Add(d.Expenses)
	e.Debt = e.Debt.Add(d.Debt)
	e.PaidFeesCount += d.PaidFeesCount
	e.UnpaidFeesCount += d.UnpaidFeesCount
}

// QueryFilter applies an AND operation on its non-zero fields.
// DateFrom is inclusive, DateTo exclusive.
type QueryFilter struct {
	Month     int
	Year      int
	Automatic *bool
	DateFrom  time.Time
	DateTo    time.Time
}

type IncomeSummary struct {
	StudentFees decimal.Decimal `json:"studentFees"`
	Manual      decimal.Decimal `json:"manual"`
	Total       decimal.Decimal `json:"total"`
}

type ExpensesSummary struct {
	TeacherSalaries decimal.Decimal `json:"teacherSalaries"`
	Manual          decimal.Decimal `json:"manual"`
	Total           decimal.Decimal `json:"total"`
}

// Summary is derived on read from paid fees, paid salaries and manual entries of a calendar month.
// Automatic entries are not part of it.
type Summary struct {
	Month           int             `json:"month"`
	Year            int             `json:"year"`
	MonthName       string          `json:"monthName"`
	Income          IncomeSummary   `json:"income"`
	Expenses        ExpensesSummary `json:"expenses"`
	Debt            decimal.Decimal `json:"debt"`
	NetIncome       decimal.Decimal `json:"netIncome"`
	PaidFeesCount   int             `json:"paidFeesCount"`
	UnpaidFeesCount int             `json:"unpaidFeesCount"`
	ManualRecords   []Entry         `json:"manualRecords"`
}
