// Package salary implements the monthly salary obligations of teachers.
package salary

import (
	"context"
	"net/mail"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/school"
)

var (
	ErrNotFound  = core.NewNotFoundError("Salary record not found")
	ErrDuplicate = core.NewConflictError("Salary record already exists for this teacher for the specified month and year")
)

type Repository interface {
	// CreateSalary returns ErrDuplicate when a salary already exists for (teacher, month, year).
	CreateSalary(ctx context.Context, salary Salary) (Salary, error)
	GetSalary(ctx context.Context, id string) (Salary, error)
	QuerySalaries(ctx context.Context, filter QueryFilter) ([]Salary, error)
	UpdateSalary(ctx context.Context, salary Salary) (Salary, error)
	DeleteSalary(ctx context.Context, id string) error
}

type Service struct {
	repo       Repository
	schoolRepo school.Repository
	mailSvc    core.EmailService
	events     core.EventPublisher
	logger     core.Logger
}

func NewService(
	repo Repository,
	schoolRepo school.Repository,
	mailSvc core.EmailService,
	events core.EventPublisher,
	logger core.Logger,
) *Service {
	if events == nil {
		events = core.DiscardEvents
	}
	return &Service{repo: repo, schoolRepo: schoolRepo, mailSvc: mailSvc, events: events, logger: logger}
}

type salaryTerms struct {
	amount     decimal.Decimal
	bonus      decimal.Decimal
	deductions decimal.Decimal
	key        period.Key
	note       string
}

func (svc *Service) Create(ctx context.Context, ns NewSalary, actor core.Actor) (Salary, error) {
	if err := core.ValidateStruct(ns); err != nil {
		return Salary{}, err
	}
	teacher, err := svc.schoolRepo.GetTeacher(ctx, ns.Teacher)
	if err != nil {
		return Salary{}, err
	}
	terms := salaryTerms{ns.Amount, ns.Bonus, ns.Deductions, period.NewKey(ns.Month, ns.Year), ns.Note}
	return svc.create(ctx, teacher, terms, actor)
}

// CreateForAll creates the salaries of every active teacher for a period.
// Teachers who already have a salary for the period are skipped and reported.
// Any other failure stops the batch; salaries created before it are kept.
func (svc *Service) CreateForAll(ctx context.Context, nbs NewBulkSalaries, actor core.Actor) (BulkSalariesResult, error) {
	if err := core.ValidateStruct(nbs); err != nil {
		return BulkSalariesResult{}, err
	}
	active := true
	teachers, err := svc.schoolRepo.QueryTeachers(ctx, school.TeacherFilter{IsActive: &active})
	if err != nil {
		return BulkSalariesResult{}, errors.Wrap(err, "querying active teachers")
	}

	res := BulkSalariesResult{ExistingTeachers: []string{}, SalaryRecords: []Salary{}}
	terms := salaryTerms{nbs.Amount, nbs.Bonus, nbs.Deductions, period.NewKey(nbs.Month, nbs.Year), nbs.Note}
	for _, teacher := range teachers {
		sal, err := svc.create(ctx, teacher, terms, actor)
		if err != nil {
			if errors.Cause(err) == ErrDuplicate {
				res.ExistingTeachers = append(res.ExistingTeachers, teacher.Name)
				continue
			}
			return res, errors.Wrapf(err, "creating salary of teacher %s", teacher.ID)
		}
		res.SalaryRecords = append(res.SalaryRecords, sal)
	}
	res.Created = len(res.SalaryRecords)
	res.Existing = len(res.ExistingTeachers)
	return res, nil
}

func (svc *Service) create(ctx context.Context, teacher school.Teacher, terms salaryTerms, actor core.Actor) (Salary, error) {
	now := core.Now()
	sal := Salary{
		ID:         uuid.NewString(),
		Teacher:    teacher.ID,
		Amount:     terms.amount,
		Month:      terms.key.Month,
		Year:       terms.key.Year,
		Bonus:      terms.bonus,
		Deductions: terms.deductions,
		Note:       core.CleanString(terms.note),
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	sal.computeTotal()
	sal, err := svc.repo.CreateSalary(ctx, sal)
	if err != nil {
		return Salary{}, err
	}
	if err := svc.schoolRepo.AddTeacherSalary(ctx, teacher.ID, sal.ID); err != nil {
		svc.logger.Error("adding salary reference to teacher", err, actor)
	}
	return sal, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Salary, error) {
	return svc.repo.GetSalary(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Salary, error) {
	return svc.repo.QuerySalaries(ctx, filter)
}

// Update patches a salary. Paying it publishes an event and emails the teacher a payslip.
func (svc *Service) Update(ctx context.Context, id string, us UpdateSalary, actor core.Actor) (Salary, error) {
	if err := core.ValidateStruct(us); err != nil {
		return Salary{}, err
	}
	sal, err := svc.repo.GetSalary(ctx, id)
	if err != nil {
		return Salary{}, err
	}
	wasPaid := sal.Paid
	us.apply(&sal, core.Now())
	if sal, err = svc.repo.UpdateSalary(ctx, sal); err != nil {
		return Salary{}, err
	}

	if !wasPaid && sal.Paid {
		evt := core.NewEvent(core.EventSalaryPaid, sal.ID, sal.Month, sal.Year, sal)
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Error("publishing salary paid event", err, actor)
		}
		svc.sendPayslip(ctx, sal, actor)
	}
	return sal, nil
}

func (svc *Service) sendPayslip(ctx context.Context, sal Salary, actor core.Actor) {
	if svc.mailSvc == nil {
		return
	}
	teacher, err := svc.schoolRepo.GetTeacher(ctx, sal.Teacher)
	if err != nil {
		svc.logger.Error("fetching teacher for payslip", err, actor)
		return
	}
	if teacher.Email == "" {
		return
	}

	key := period.NewKey(sal.Month, sal.Year)
	subject := "Payslip " + key.String()
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: teacher.Name, Address: teacher.Email}},
		Subject:      subject,
		TemplateName: "payslip",
		TemplateData: payslipData{
			Subject:     subject,
			TeacherName: teacher.Name,
			Period:      key.String(),
			PaidDate:    sal.PaidDate.Format("2006-01-02"),
			Amount:      sal.Amount.StringFixed(2),
			Bonus:       sal.Bonus.StringFixed(2),
			Deductions:  sal.Deductions.StringFixed(2),
			TotalAmount: sal.TotalAmount.StringFixed(2),
		},
	})
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteSalary(ctx, id)
}

func (svc *Service) Statistics(ctx context.Context, filter QueryFilter) (Statistics, error) {
	salaries, err := svc.repo.QuerySalaries(ctx, filter)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "querying salaries")
	}
	return ComputeStatistics(salaries), nil
}
