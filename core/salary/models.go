package salary

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
)

// Salary is the monthly obligation to one teacher.
// TotalAmount is always Amount + Bonus - Deductions and may be negative.
type Salary struct {
	ID          string          `json:"id" bson:"_id" db:"id"`
	Teacher     string          `json:"teacher" bson:"teacher" db:"teacher_id"`
	Amount      decimal.Decimal `json:"amount" bson:"amount" db:"amount"`
	Month       int             `json:"month" bson:"month" db:"month"`
	Year        int             `json:"year" bson:"year" db:"year"`
	Bonus       decimal.Decimal `json:"bonus" bson:"bonus" db:"bonus"`
	Deductions  decimal.Decimal `json:"deductions" bson:"deductions" db:"deductions"`
	TotalAmount decimal.Decimal `json:"totalAmount" bson:"totalAmount" db:"total_amount"`
	Paid        bool            `json:"paid" bson:"paid" db:"paid"`
	PaidDate    *time.Time      `json:"paidDate" bson:"paidDate" db:"paid_date"` // UTC, nil when unpaid
	Note        string          `json:"note" bson:"note" db:"note"`
	CreatedBy   string          `json:"createdBy" bson:"createdBy" db:"created_by"`
	CreatedAt   time.Time       `json:"createdAt" bson:"createdAt" db:"created_at"` // UTC
	UpdatedAt   time.Time       `json:"updatedAt" bson:"updatedAt" db:"updated_at"` // UTC
}

func (s *Salary) computeTotal() {
	s.TotalAmount = s.Amount.Add(s.Bonus).Sub(s.Deductions)
}

type NewSalary struct {
	Teacher    string          `json:"teacher" validate:"required"`
	Amount     decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	Year       int             `json:"year" validate:"required,min=1000,max=9999"`
	Bonus      decimal.Decimal `json:"bonus" validate:"gte=0"`
	Deductions decimal.Decimal `json:"deductions" validate:"gte=0"`
	Note       string          `json:"note"`
}

type NewBulkSalaries struct {
	Amount     decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Month      int             `json:"month" validate:"required,min=1,max=12"`
	Year       int             `json:"year" validate:"required,min=1000,max=9999"`
	Bonus      decimal.Decimal `json:"bonus" validate:"gte=0"`
	Deductions decimal.Decimal `json:"deductions" validate:"gte=0"`
	Note       string          `json:"note"`
}

// UpdateSalary lists the only mutable fields of a Salary.
type UpdateSalary struct {
	Amount     *decimal.Decimal `json:"amount" validate:"omitnil,gt=0"`
	Bonus      *decimal.Decimal `json:"bonus" validate:"omitnil,gte=0"`
	Deductions *decimal.Decimal `json:"deductions" validate:"omitnil,gte=0"`
	Paid       *bool            `json:"paid"`
	PaidDate   *time.Time       `json:"paidDate"`
	Note       *string          `json:"note"`
}

// apply patches s and recomputes its total.
func (us UpdateSalary) apply(s *Salary, now time.Time) {
	if us.Amount != nil {
		s.Amount = *us.Amount
	}
	if us.Bonus != nil {
		s.Bonus = *us.Bonus
	}
	if us.Deductions != nil {
		s.Deductions = *us.Deductions
	}
	if us.Paid != nil {
		s.Paid = *us.Paid
	}
	s.PaidDate = core.PaidDate(s.Paid, s.PaidDate, us.PaidDate, now)
	if us.Note != nil {
		s.Note = core.CleanString(*us.Note)
	}
	s.computeTotal()
	s.UpdatedAt = now
}

type BulkSalariesResult struct {
	Created          int      `json:"created"`
	Existing         int      `json:"existing"`
	ExistingTeachers []string `json:"existingTeachers"`
	SalaryRecords    []Salary `json:"salaryRecords"`
}

// QueryFilter applies an AND operation on its non-zero fields.
type QueryFilter struct {
	Teacher string
	Month   int
	Year    int
	Paid    *bool
}

type Statistics struct {
	TotalSalaries  int             `json:"totalSalaries"`
	PaidSalaries   int             `json:"paidSalaries"`
	UnpaidSalaries int             `json:"unpaidSalaries"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	PaidAmount     decimal.Decimal `json:"paidAmount"`
	UnpaidAmount   decimal.Decimal `json:"unpaidAmount"`
}

// ComputeStatistics aggregates counts and total amounts of salaries.
func ComputeStatistics(salaries []Salary) Statistics {
	stats := Statistics{
		TotalAmount:  decimal.Zero,
		PaidAmount:   decimal.Zero,
		UnpaidAmount: decimal.Zero,
	}
	for _, s := range salaries {
		stats.TotalSalaries++
		stats.TotalAmount = stats.TotalAmount.Add(s.TotalAmount)
		if s.Paid {
			stats.PaidSalaries++
			stats.PaidAmount = stats.PaidAmount.Add(s.TotalAmount)
		} else {
			stats.UnpaidSalaries++
			stats.UnpaidAmount = stats.UnpaidAmount.Add(s.TotalAmount)
		}
	}
	return stats
}

// payslipData feeds the "payslip" email templates.
type payslipData struct {
	Subject     string
	TeacherName string
	Period      string
	PaidDate    string
	Amount      string
	Bonus       string
	Deductions  string
	TotalAmount string
}
