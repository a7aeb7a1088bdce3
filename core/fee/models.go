package fee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
)

// Fee is the monthly obligation of one student.
type Fee struct {
	ID        string          `json:"id" bson:"_id" db:"id"`
	Student   string          `json:"student" bson:"student" db:"student_id"`
	Class     string          `json:"class" bson:"class" db:"class_id"`
	Amount    decimal.Decimal `json:"amount" bson:"amount" db:"amount"`
	Month     int             `json:"month" bson:"month" db:"month"`
	Year      int             `json:"year" bson:"year" db:"year"`
	Paid      bool            `json:"paid" bson:"paid" db:"paid"`
	PaidDate  *time.Time      `json:"paidDate" bson:"paidDate" db:"paid_date"` // UTC, nil when unpaid
	DueDate   time.Time       `json:"dueDate" bson:"dueDate" db:"due_date"`    // UTC
	Note      string          `json:"note" bson:"note" db:"note"`
	CreatedBy string          `json:"createdBy" bson:"createdBy" db:"created_by"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
	UpdatedAt time.Time       `json:"updatedAt" bson:"updatedAt" db:"updated_at"` // UTC
}

type NewFee struct {
	Student string          `json:"student" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Month   int             `json:"month" validate:"required,min=1,max=12"`
	Year    int             `json:"year" validate:"required,min=1000,max=9999"`
	DueDate time.Time       `json:"dueDate" validate:"required"`
	Note    string          `json:"note"`
}

type NewClassFees struct {
	Class   string          `json:"classId" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Month   int             `json:"month" validate:"required,min=1,max=12"`
	Year    int             `json:"year" validate:"required,min=1000,max=9999"`
	DueDate time.Time       `json:"dueDate" validate:"required"`
	Note    string          `json:"note"`
}

// UpdateFee lists the only mutable fields of a Fee.
type UpdateFee struct {
	Paid     *bool      `json:"paid" validate:"required"`
	PaidDate *time.Time `json:"paidDate"`
	Note     *string    `json:"note"`
}

// apply patches fee.
// Marking a fee paid without a date stamps `now` unless it already had one; marking it unpaid clears the date.
func (uf UpdateFee) apply(fee *Fee, now time.Time) {
	if uf.Paid != nil {
		fee.Paid = *uf.Paid
	}
	fee.PaidDate = core.PaidDate(fee.Paid, fee.PaidDate, uf.PaidDate, now)
	if uf.Note != nil {
		fee.Note = core.CleanString(*uf.Note)
	}
	fee.UpdatedAt = now
}

type ClassFeesResult struct {
	Created          int      `json:"created"`
	Existing         int      `json:"existing"`
	ExistingStudents []string `json:"existingStudents"`
	FeeRecords       []Fee    `json:"feeRecords"`
}

// QueryFilter applies an AND operation on its non-zero fields.
type QueryFilter struct {
	Student string
	Class   string
	Month   int
	Year    int
	Paid    *bool
}

type Statistics struct {
	TotalFees    int             `json:"totalFees"`
	PaidFees     int             `json:"paidFees"`
	UnpaidFees   int             `json:"unpaidFees"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PaidAmount   decimal.Decimal `json:"paidAmount"`
	UnpaidAmount decimal.Decimal `json:"unpaidAmount"`
}

// ComputeStatistics aggregates counts and amounts of fees.
func ComputeStatistics(fees []Fee) Statistics {
	stats := Statistics{
		TotalAmount:  decimal.Zero,
		PaidAmount:   decimal.Zero,
		UnpaidAmount: decimal.Zero,
	}
	for _, f := range fees {
		stats.TotalFees++
		stats.TotalAmount = stats.TotalAmount.Add(f.Amount)
		if f.Paid {
			stats.PaidFees++
			stats.PaidAmount = stats.PaidAmount.Add(f.Amount)
		} else {
			stats.UnpaidFees++
			stats.UnpaidAmount = stats.UnpaidAmount.Add(f.Amount)
		}
	}
	return stats
}
