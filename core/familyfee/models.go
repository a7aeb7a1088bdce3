package familyfee

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/finance"
)

// Member is a student grouped under a family fee.
type Member struct {
	Student  string `json:"student" bson:"student" db:"student_id" validate:"required"`
	IsPaying bool   `json:"isPaying" bson:"isPaying" db:"is_paying"`
}

// FamilyFee is one payable obligation shared by several students of a family.
// Paid always equals PaidAmount >= TotalAmount.
type FamilyFee struct {
	ID            string          `json:"id" bson:"_id" db:"id"`
	FamilyName    string          `json:"familyName" bson:"familyName" db:"family_name"`
	Students      []Member        `json:"students" bson:"students" db:"-"`
	TotalAmount   decimal.Decimal `json:"totalAmount" bson:"totalAmount" db:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paidAmount" bson:"paidAmount" db:"paid_amount"`
	Month         int             `json:"month" bson:"month" db:"month"`
	Year          int             `json:"year" bson:"year" db:"year"`
	Paid          bool            `json:"paid" bson:"paid" db:"paid"`
	PaidDate      *time.Time      `json:"paidDate" bson:"paidDate" db:"paid_date"` // UTC
	PaymentMethod string          `json:"paymentMethod" bson:"paymentMethod" db:"payment_method"`
	DueDate       time.Time       `json:"dueDate" bson:"dueDate" db:"due_date"` // UTC
	Note          string          `json:"note" bson:"note" db:"note"`
	CreatedBy     string          `json:"createdBy" bson:"createdBy" db:"created_by"`
	CreatedAt     time.Time       `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
	UpdatedAt     time.Time       `json:"updatedAt" bson:"updatedAt" db:"updated_at"` // UTC
}

// ledgerDelta is what a full payment adds to the finance ledger of its period.
func (ff FamilyFee) ledgerDelta() finance.Delta {
	return finance.Delta{
		Income:        ff.PaidAmount,
		PaidFeesCount: len(ff.Students),
	}
}

type NewFamilyFee struct {
	FamilyName  string          `json:"familyName" validate:"required,notblank"`
	Students    []Member        `json:"students" validate:"required,min=1,unique=Student,dive"`
	TotalAmount decimal.Decimal `json:"totalAmount" validate:"required,gt=0"`
	Month       int             `json:"month" validate:"required,min=1,max=12"`
	Year        int             `json:"year" validate:"required,min=1000,max=9999"`
	DueDate     time.Time       `json:"dueDate" validate:"required"`
	Note        string          `json:"note"`
}

// Payment records the cumulative amount paid for a family fee.
type Payment struct {
	PaidAmount    decimal.Decimal `json:"paidAmount" validate:"required,gt=0"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,notblank"`
	Note          *string         `json:"note"`
}

func (p Payment) apply(ff *FamilyFee, now time.Time) {
	ff.PaidAmount = p.PaidAmount
	ff.PaymentMethod = core.CleanString(p.PaymentMethod)
	if p.Note != nil {
		ff.Note = core.CleanString(*p.Note)
	}
	ff.Paid = ff.PaidAmount.GreaterThanOrEqual(ff.TotalAmount)
	ff.PaidDate = &now
	ff.UpdatedAt = now
}

// QueryFilter applies an AND operation on its non-zero fields.
type QueryFilter struct {
	FamilyName string
	Student    string // member of the family fee
	Month      int
	Year       int
	Paid       *bool
}

type Statistics struct {
	TotalFamilies  int             `json:"totalFamilies"`
	PaidFamilies   int             `json:"paidFamilies"`
	UnpaidFamilies int             `json:"unpaidFamilies"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	PaymentRate    decimal.Decimal `json:"paymentRate"` // percentage of paid families
}

// ComputeStatistics aggregates counts and amounts of family fees.
func ComputeStatistics(ffs []FamilyFee) Statistics {
	stats := Statistics{
		TotalAmount: decimal.Zero,
		PaidAmount:  decimal.Zero,
	}
	for _, ff := range ffs {
		stats.TotalFamilies++
		stats.TotalAmount = stats.TotalAmount.Add(ff.TotalAmount)
		stats.PaidAmount = stats.PaidAmount.Add(ff.PaidAmount)
		if ff.Paid {
			stats.PaidFamilies++
		} else {
			stats.UnpaidFamilies++
		}
	}
	stats.PaymentRate = core.Percentage(stats.PaidFamilies, stats.TotalFamilies)
	return stats
}
