// Package familyfee implements fees shared by the students of a family.
// A family fee paid in full feeds the finance ledger of its period.
package familyfee

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/school"
)

var (
	ErrNotFound  = core.NewNotFoundError("Family fee record not found")
	ErrDuplicate = core.NewConflictError("Family fee record already exists for this family for the specified month and year")
)

type Repository interface {
	// CreateFamilyFee returns ErrDuplicate when a family fee already exists for (familyName, month, year).
	CreateFamilyFee(ctx context.Context, ff FamilyFee) (FamilyFee, error)
	GetFamilyFee(ctx context.Context, id string) (FamilyFee, error)
	QueryFamilyFees(ctx context.Context, filter QueryFilter) ([]FamilyFee, error)
	UpdateFamilyFee(ctx context.Context, ff FamilyFee) (FamilyFee, error)
	DeleteFamilyFee(ctx context.Context, id string) error
}

// Ledger maintains the automatic finance ledger entries.
type Ledger interface {
	ApplyDelta(ctx context.Context, key period.Key, delta finance.Delta, actor core.Actor) (finance.Entry, error)
	ReverseDelta(ctx context.Context, key period.Key, delta finance.Delta, actor core.Actor) (finance.Entry, bool, error)
}

type Service struct {
	repo       Repository
	schoolRepo school.Repository
	ledger     Ledger
	events     core.EventPublisher
	logger     core.Logger
}

func NewService(repo Repository, schoolRepo school.Repository, ledger Ledger, events core.EventPublisher, logger core.Logger) *Service {
	if events == nil {
		events = core.DiscardEvents
	}
	return &Service{repo: repo, schoolRepo: schoolRepo, ledger: ledger, events: events, logger: logger}
}

func (svc *Service) Create(ctx context.Context, nff NewFamilyFee, actor core.Actor) (FamilyFee, error) {
	if err := core.ValidateStruct(nff); err != nil {
		return FamilyFee{}, err
	}
	for _, m := range nff.Students {
		if _, err := svc.schoolRepo.GetStudent(ctx, m.Student); err != nil {
			if errors.Cause(err) == school.ErrStudentNotFound {
				return FamilyFee{}, core.NewFieldValidationError("students", fmt.Sprintf("Student with ID %s not found", m.Student))
			}
			return FamilyFee{}, err
		}
	}

	now := core.Now()
	ff := FamilyFee{
		ID:          uuid.NewString(),
		FamilyName:  core.CleanString(nff.FamilyName),
		Students:    append([]Member{}, nff.Students...),
		TotalAmount: nff.TotalAmount,
		PaidAmount:  decimal.Zero,
		Month:       nff.Month,
		Year:        nff.Year,
		DueDate:     nff.DueDate.UTC(),
		Note:        core.CleanString(nff.Note),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateFamilyFee(ctx, ff)
}

func (svc *Service) Get(ctx context.Context, id string) (FamilyFee, error) {
	return svc.repo.GetFamilyFee(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]FamilyFee, error) {
	return svc.repo.QueryFamilyFees(ctx, filter)
}

// RecordPayment sets the amount paid for a family fee.
// The first payment covering the total amount adds it to the finance ledger of the period.
func (svc *Service) RecordPayment(ctx context.Context, id string, p Payment, actor core.Actor) (FamilyFee, error) {
	if err := core.ValidateStruct(p); err != nil {
		return FamilyFee{}, err
	}
	ff, err := svc.repo.GetFamilyFee(ctx, id)
	if err != nil {
		return FamilyFee{}, err
	}
	wasPaid := ff.Paid
	p.apply(&ff, core.Now())
	if ff, err = svc.repo.UpdateFamilyFee(ctx, ff); err != nil {
		return FamilyFee{}, err
	}

	if !wasPaid && ff.Paid {
		key := period.NewKey(ff.Month, ff.Year)
		if _, err := svc.ledger.ApplyDelta(ctx, key, ff.ledgerDelta(), actor); err != nil {
			return ff, errors.Wrap(err, "updating finance ledger")
		}
		evt := core.NewEvent(core.EventFamilyFeePaid, ff.ID, ff.Month, ff.Year, ff)
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Error("publishing family fee paid event", err, actor)
		}
	}
	return ff, nil
}

// Delete deletes a family fee, first taking a paid one out of the finance ledger of its period.
func (svc *Service) Delete(ctx context.Context, id string, actor core.Actor) error {
	ff, err := svc.repo.GetFamilyFee(ctx, id)
	if err != nil {
		return err
	}
	if ff.Paid {
		key := period.NewKey(ff.Month, ff.Year)
		if _, found, err := svc.ledger.ReverseDelta(ctx, key, ff.ledgerDelta(), actor); err != nil {
			return errors.Wrap(err, "reversing finance ledger")
		} else if !found {
			svc.logger.Warn(fmt.Sprintf("no finance ledger entry to reverse for %s", key), actor)
		}
	}
	if err := svc.repo.DeleteFamilyFee(ctx, id); err != nil {
		return err
	}

	if ff.Paid {
		evt := core.NewEvent(core.EventFamilyFeeDeleted, ff.ID, ff.Month, ff.Year, ff)
		if err := svc.events.Publish(ctx, evt); err != nil {
			svc.logger.Error("publishing family fee deleted event", err, actor)
		}
	}
	return nil
}

func (svc *Service) Statistics(ctx context.Context, filter QueryFilter) (Statistics, error) {
	ffs, err := svc.repo.QueryFamilyFees(ctx, filter)
	if err != nil {
		return Statistics{}, errors.Wrap(err, "querying family fees")
	}
	return ComputeStatistics(ffs), nil
}
