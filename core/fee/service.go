// Package fee implements the monthly fee obligations of students.
package fee

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/school"
)

var (
	ErrNotFound            = core.NewNotFoundError("Fee record not found")
	ErrDuplicate           = core.NewConflictError("Fee record already exists for this student for the specified month and year")
	ErrStudentWithoutClass = core.NewFieldValidationError("student", "Student is not assigned to a class")
)

type Repository interface {
	// CreateFee returns ErrDuplicate when a fee already exists for (student, month, year).
	CreateFee(ctx context.Context, fee Fee) (Fee, error)
	GetFee(ctx context.Context, id string) (Fee, error)
	QueryFees(ctx context.Context, filter QueryFilter) ([]Fee, error)
	UpdateFee(ctx context.Context, fee Fee) (Fee, error)
	DeleteFee(ctx context.Context, id string) error
}

type Service struct {
	repo       Repository
	schoolRepo school.Repository
	events     core.EventPublisher
	logger     core.Logger
}

func NewService(repo Repository, schoolRepo school.Repository, events core.EventPublisher, logger core.Logger) *Service {
	if events == nil {
		events = core.DiscardEvents
	}
	return &Service{repo: repo, schoolRepo: schoolRepo, events: events, logger: logger}
}

type feeTerms struct {
	amount  decimal.Decimal
	key     period.Key
	dueDate time.Time
	note    string
}

// Create creates the fee of a student for a period.
func (svc *Service) Create(ctx context.Context, nf NewFee, actor core.Actor) (Fee, error) {
	if err := core.ValidateStruct(nf); err != nil {
		return Fee{}, err
	}
	student, err := svc.schoolRepo.GetStudent(ctx, nf.Student)
	if err != nil {
		return Fee{}, err
	}
	if student.Class == "" {
		return Fee{}, ErrStudentWithoutClass
	}
	if _, err := svc.schoolRepo.GetClass(ctx, student.Class); err != nil {
		return Fee{}, err
	}
	terms := feeTerms{nf.Amount, period.NewKey(nf.Month, nf.Year), nf.DueDate, nf.Note}
	return svc.create(ctx, student, terms, actor)
}

// CreateForClass creates the fees of every student of a class for a period.
// Students who already have a fee for the period are skipped and reported, so it is safe to run it again.
// Any other failure stops the batch; fees created before it are kept.
func (svc *Service) CreateForClass(ctx context.Context, ncf NewClassFees, actor core.Actor) (ClassFeesResult, error) {
	if err := core.ValidateStruct(ncf); err != nil {
		return ClassFeesResult{}, err
	}
	if _, err := svc.schoolRepo.GetClass(ctx, ncf.Class); err != nil {
		return ClassFeesResult{}, err
	}
	students, err := svc.schoolRepo.QueryStudents(ctx, school.StudentFilter{Class: ncf.Class})
	if err != nil {
		return ClassFeesResult{}, errors.Wrap(err, "querying class students")
	}

	res := ClassFeesResult{ExistingStudents: []string{}, FeeRecords: []Fee{}}
	terms := feeTerms{ncf.Amount, period.NewKey(ncf.Month, ncf.Year), ncf.DueDate, ncf.Note}
	for _, student := range students {
		fee, err := svc.create(ctx, student, terms, actor)
		if err != nil {
			if errors.Cause(err) == ErrDuplicate {
				res.ExistingStudents = append(res.ExistingStudents, student.Name)
				continue
			}
			return res, errors.Wrapf(err, "creating fee of student %s", student.ID)
		}
		res.FeeRecords = append(res.FeeRecords, fee)
	}
	res.Created = len(res.FeeRecords)
	res.Existing = len(res.ExistingStudents)
	return res, nil
}

func (svc *Service) create(ctx context.Context, student school.Student, terms feeTerms, actor core.Actor) (Fee, error) {
	now := core.Now()
	fee := Fee{
		ID:        uuid.NewString(),
		Student:   student.ID,
		Class:     student.Class,
		Amount:    terms.amount,
		Month:     terms.key.Month,
		Year:      terms.key.Year,
		DueDate:   terms.dueDate.UTC(),
		Note:      core.CleanString(terms.note),
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fee, err := svc.repo.CreateFee(ctx, fee)
	if err != nil {
		return Fee{}, err
	}
	if err := svc.schoolRepo.AddStudentFee(ctx, student.ID, fee.ID); err != nil {
		svc.logger.Error("adding fee reference to student", err, actor)
	}
	return fee, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Fee, error) {
	return svc.repo.GetFee(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Fee, error) {
	return svc.repo.QueryFees(ctx, filter)
}

// Update marks a fee paid or unpaid and edits its note.
func (svc *Service) Update(ctx context.Context, id string, uf UpdateFee, actor core.Actor) (Fee, error) {
	if err := core.ValidateStruct(uf); err != nil {
		return Fee{}, err
	}
	fee, err := svc.repo.GetFee(ctx, id)
	if err != nil {
		return Fee{}, err
	}
	wasPaid := fee.Paid
	uf.apply(&fee, core.Now())
	if fee, err = svc.repo.UpdateFee(ctx, fee); err != nil {
		return Fee{}, err
	}

	if !wasPaid && fee.Paid {
		evt := core.NewEvent(core.EventFeePaid, fee.ID, fee.Month, fee.Year, fee)
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Error("publishing fee paid event", err, actor)
		}
	}
	return fee, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteFee(ctx, id)
}

func (svc *Service) Statistics(ctx context.Context, filter QueryFilter) (Statistics, error) {
	fees, err := svc.repo.QueryFees(ctx, filter)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "querying fees")
	}
	return ComputeStatistics(fees), nil
}
