package fee_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/testutil"
)

var (
	now    = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)
	ctx    = context.Background()
	actor  = testutil.Actor
	paid   = true
	unpaid = false
)

func newFee(studentID string) fee.NewFee {
	return fee.NewFee{
		Student: studentID,
		Amount:  testutil.Dec("500"),
		Month:   6,
		Year:    2024,
		DueDate: now.AddDate(0, 0, 15),
		Note:    " June fees ",
	}
}

func TestService_FeeLifecycle(t *testing.T) {
	testutil.FreezeTime(t, now)
	env := testutil.NewEnv()
	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 1")
	student := testutil.CreateStudent(t, env.SchoolRepo, "Alice", class.ID)

	f, err := env.Fee.Create(ctx, newFee(student.ID), actor)
	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.Equal(t, class.ID, f.Class)
	assert.False(t, f.Paid)
	assert.Nil(t, f.PaidDate)
	assert.Equal(t, "June fees", f.Note)
	assert.Equal(t, actor.ID, f.CreatedBy)

	st, err := env.SchoolRepo.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.ID}, st.Fees)

	// same period again
	_, err = env.Fee.Create(ctx, newFee(student.ID), actor)
	assert.Equal(t, fee.ErrDuplicate, errors.Cause(err))
	assert.True(t, core.IsConflict(err))
	fees, err := env.Fee.Query(ctx, fee.QueryFilter{Student: student.ID})
	require.NoError(t, err)
	assert.Equal(t, []fee.Fee{f}, fees)

	updated, err := env.Fee.Update(ctx, f.ID, fee.UpdateFee{Paid: &paid}, actor)
	require.NoError(t, err)
	assert.True(t, updated.Paid)
	require.NotNil(t, updated.PaidDate)
	assert.Equal(t, now, *updated.PaidDate)

	stats, err := env.Fee.Statistics(ctx, fee.QueryFilter{Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFees)
	assert.Equal(t, 1, stats.PaidFees)
	assert.Equal(t, 0, stats.UnpaidFees)
	testutil.AssertDecimal(t, "500", stats.TotalAmount)
	testutil.AssertDecimal(t, "500", stats.PaidAmount)
	testutil.AssertDecimal(t, "0", stats.UnpaidAmount)

	if evts := env.Events.Events(); assert.Len(t, evts, 1) {
		assert.Equal(t, core.EventFeePaid, evts[0].Type)
		assert.Equal(t, f.ID, evts[0].RecordID)
	}

	require.NoError(t, env.Fee.Delete(ctx, f.ID))
	_, err = env.Fee.Get(ctx, f.ID)
	assert.Equal(t, fee.ErrNotFound, errors.Cause(err))
}

func TestService_Create_Errors(t *testing.T) {
	env := testutil.NewEnv()
	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 2")
	student := testutil.CreateStudent(t, env.SchoolRepo, "Bob", class.ID)
	classless := testutil.CreateStudent(t, env.SchoolRepo, "Carl", "")
	orphan := testutil.CreateStudent(t, env.SchoolRepo, "Dan", "deleted-class")

	invalid := newFee(student.ID)
	invalid.Month = 13
	zeroAmount := newFee(student.ID)
	zeroAmount.Amount = testutil.Dec("0")

	tests := []struct {
		name  string
		nf    fee.NewFee
		check func(error) bool
	}{
		{name: "unknown student", nf: newFee("nope"), check: core.IsNotFound},
		{name: "student without class", nf: newFee(classless.ID), check: core.IsValidation},
		{name: "student with unknown class", nf: newFee(orphan.ID), check: core.IsNotFound},
		{name: "invalid month", nf: invalid, check: core.IsValidation},
		{name: "zero amount", nf: zeroAmount, check: core.IsValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.Fee.Create(ctx, tc.nf, actor)
			require.Error(t, err)
			assert.True(t, tc.check(err), "unexpected error: %v", err)
		})
	}

	fees, err := env.Fee.Query(ctx, fee.QueryFilter{})
	require.NoError(t, err)
	assert.Empty(t, fees)
}

func TestService_Update(t *testing.T) {
	testutil.FreezeTime(t, now)
	env := testutil.NewEnv()
	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 3")
	student := testutil.CreateStudent(t, env.SchoolRepo, "Eve", class.ID)
	f, err := env.Fee.Create(ctx, newFee(student.ID), actor)
	require.NoError(t, err)

	explicit := time.Date(2024, time.June, 2, 8, 0, 0, 0, time.FixedZone("EAT", 3*3600))
	updated, err := env.Fee.Update(ctx, f.ID, fee.UpdateFee{Paid: &paid, PaidDate: &explicit}, actor)
	require.NoError(t, err)
	require.NotNil(t, updated.PaidDate)
	assert.Equal(t, explicit.UTC(), *updated.PaidDate)

	// paying again without a date keeps the first one
	updated, err = env.Fee.Update(ctx, f.ID, fee.UpdateFee{Paid: &paid}, actor)
	require.NoError(t, err)
	assert.Equal(t, explicit.UTC(), *updated.PaidDate)

	note := "reversed"
	updated, err = env.Fee.Update(ctx, f.ID, fee.UpdateFee{Paid: &unpaid, Note: &note}, actor)
	require.NoError(t, err)
	assert.False(t, updated.Paid)
	assert.Nil(t, updated.PaidDate)
	assert.Equal(t, "reversed", updated.Note)

	_, err = env.Fee.Update(ctx, "unknown", fee.UpdateFee{Paid: &paid}, actor)
	assert.Equal(t, fee.ErrNotFound, errors.Cause(err))

	_, err = env.Fee.Update(ctx, f.ID, fee.UpdateFee{}, actor)
	assert.True(t, core.IsValidation(err))

	// only the first transition to paid is published
	assert.Len(t, env.Events.Events(), 1)
}

func TestService_CreateForClass(t *testing.T) {
	testutil.FreezeTime(t, now)
	env := testutil.NewEnv()
	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 4")
	other := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	alice := testutil.CreateStudent(t, env.SchoolRepo, "Alice", class.ID)
	bob := testutil.CreateStudent(t, env.SchoolRepo, "Bob", class.ID)
	testutil.CreateStudent(t, env.SchoolRepo, "Zed", other.ID)

	// Alice already has her fee
	_, err := env.Fee.Create(ctx, newFee(alice.ID), actor)
	require.NoError(t, err)

	ncf := fee.NewClassFees{
		Class:   class.ID,
		Amount:  testutil.Dec("500"),
		Month:   6,
		Year:    2024,
		DueDate: now.AddDate(0, 0, 15),
	}
	res, err := env.Fee.CreateForClass(ctx, ncf, actor)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Existing)
	assert.Equal(t, []string{"Alice"}, res.ExistingStudents)
	if assert.Len(t, res.FeeRecords, 1) {
		assert.Equal(t, bob.ID, res.FeeRecords[0].Student)
	}

	// running it again only reports existing fees
	res, err = env.Fee.CreateForClass(ctx, ncf, actor)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Existing)
	assert.ElementsMatch(t, []string{"Alice", "Bob"}, res.ExistingStudents)
	assert.Empty(t, res.FeeRecords)

	fees, err := env.Fee.Query(ctx, fee.QueryFilter{Class: class.ID, Month: 6, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, fees, 2)

	ncf.Class = "unknown"
	_, err = env.Fee.CreateForClass(ctx, ncf, actor)
	assert.True(t, core.IsNotFound(err))
}

func TestComputeStatistics(t *testing.T) {
	stats := fee.ComputeStatistics(nil)
	assert.Equal(t, 0, stats.TotalFees)
	testutil.AssertDecimal(t, "0", stats.TotalAmount)

	stats = fee.ComputeStatistics([]fee.Fee{
		{Amount: testutil.Dec("100.50"), Paid: true},
		{Amount: testutil.Dec("200")},
		{Amount: testutil.Dec("300.25")},
	})
	assert.Equal(t, 3, stats.TotalFees)
	assert.Equal(t, 1, stats.PaidFees)
	assert.Equal(t, 2, stats.UnpaidFees)
	testutil.AssertDecimal(t, "600.75", stats.TotalAmount)
	testutil.AssertDecimal(t, "100.5", stats.PaidAmount)
	testutil.AssertDecimal(t, "500.25", stats.UnpaidAmount)
}
