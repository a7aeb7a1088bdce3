package familyfee_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/testutil"
)

var (
	now   = time.Date(2024, time.March, 10, 14, 30, 0, 0, time.UTC)
	ctx   = context.Background()
	actor = testutil.Actor
	key   = period.NewKey(3, 2024)
)

type fixture struct {
	env      *testutil.Env
	students []string
}

func setup(t *testing.T) fixture {
	testutil.FreezeTime(t, now)
	env := testutil.NewEnv()
	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 6")
	var ids []string
	for _, name := range []string{"Amani", "Baraka", "Neema"} {
		ids = append(ids, testutil.CreateStudent(t, env.SchoolRepo, name, class.ID).ID)
	}
	return fixture{env: env, students: ids}
}

func (f fixture) newFamilyFee(name string, students ...string) familyfee.NewFamilyFee {
	members := make([]familyfee.Member, 0, len(students))
	for i, s := range students {
		members = append(members, familyfee.Member{Student: s, IsPaying: i == 0})
	}
	return familyfee.NewFamilyFee{
		FamilyName:  name,
		Students:    members,
		TotalAmount: testutil.Dec("1500"),
		Month:       key.Month,
		Year:        key.Year,
		DueDate:     now.AddDate(0, 0, 20),
	}
}

func automaticEntries(t *testing.T, env *testutil.Env) []finance.Entry {
	t.Helper()
	automatic := true
	entries, err := env.Finance.Query(ctx, finance.QueryFilter{Month: key.Month, Year: key.Year, Automatic: &automatic})
	require.NoError(t, err)
	return entries
}

func TestService_Create(t *testing.T) {
	f := setup(t)

	ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee(" Otieno ", f.students[:2]...), actor)
	require.NoError(t, err)
	assert.Equal(t, "Otieno", ff.FamilyName)
	assert.Len(t, ff.Students, 2)
	assert.False(t, ff.Paid)
	testutil.AssertDecimal(t, "0", ff.PaidAmount)

	_, err = f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students[2]), actor)
	assert.Equal(t, familyfee.ErrDuplicate, errors.Cause(err))
	assert.True(t, core.IsConflict(err))

	_, err = f.env.FamilyFee.Create(ctx, f.newFamilyFee("Mwangi", f.students[2], "ghost"), actor)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Contains(t, err.Error(), "ghost")

	_, err = f.env.FamilyFee.Create(ctx, f.newFamilyFee("Empty"), actor)
	assert.True(t, core.IsValidation(err))

	_, err = f.env.FamilyFee.Create(ctx, f.newFamilyFee("Mwangi", f.students[2], f.students[2]), actor)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "students must contain unique values", err.Error())
	ffs, err := f.env.FamilyFee.Query(ctx, familyfee.QueryFilter{FamilyName: "Mwangi"})
	require.NoError(t, err)
	assert.Empty(t, ffs)
}

func TestService_RecordPayment(t *testing.T) {
	f := setup(t)
	ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students...), actor)
	require.NoError(t, err)

	// partial payment
	partial, err := f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{
		PaidAmount:    testutil.Dec("1000"),
		PaymentMethod: "mpesa",
	}, actor)
	require.NoError(t, err)
	assert.False(t, partial.Paid)
	require.NotNil(t, partial.PaidDate)
	assert.Equal(t, now, *partial.PaidDate)
	assert.Empty(t, automaticEntries(t, f.env))

	// paid in full
	full, err := f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{
		PaidAmount:    testutil.Dec("1500"),
		PaymentMethod: "bank",
	}, actor)
	require.NoError(t, err)
	assert.True(t, full.Paid)
	assert.Equal(t, "bank", full.PaymentMethod)

	entries := automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "1500", entries[0].Income)
	assert.Equal(t, 3, entries[0].PaidFeesCount)
	assert.Equal(t, "March", entries[0].MonthName)
	assert.Equal(t, actor.ID, entries[0].CreatedBy)

	// a second family paying in the same period accumulates into the same entry
	other, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Mwangi", f.students[0]), actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, other.ID, familyfee.Payment{
		PaidAmount:    testutil.Dec("1600"),
		PaymentMethod: "cash",
	}, actor)
	require.NoError(t, err)

	entries = automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "3100", entries[0].Income)
	assert.Equal(t, 4, entries[0].PaidFeesCount)

	// paying an already paid family fee again does not propagate
	_, err = f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{
		PaidAmount:    testutil.Dec("1500"),
		PaymentMethod: "bank",
	}, actor)
	require.NoError(t, err)
	entries = automaticEntries(t, f.env)
	testutil.AssertDecimal(t, "3100", entries[0].Income)

	_, err = f.env.FamilyFee.RecordPayment(ctx, "unknown", familyfee.Payment{PaidAmount: testutil.Dec("1"), PaymentMethod: "cash"}, actor)
	assert.Equal(t, familyfee.ErrNotFound, errors.Cause(err))

	var paidEvents int
	for _, evt := range f.env.Events.Events() {
		if evt.Type == core.EventFamilyFeePaid {
			paidEvents++
		}
	}
	assert.Equal(t, 2, paidEvents)
}

func TestService_Delete(t *testing.T) {
	f := setup(t)
	unpaid, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Kariuki", f.students[0]), actor)
	require.NoError(t, err)
	paid, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students[1:]...), actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, paid.ID, familyfee.Payment{PaidAmount: testutil.Dec("1500"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)

	require.NoError(t, f.env.FamilyFee.Delete(ctx, unpaid.ID, actor))
	entries := automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "1500", entries[0].Income)

	require.NoError(t, f.env.FamilyFee.Delete(ctx, paid.ID, actor))
	entries = automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "0", entries[0].Income)
	assert.Equal(t, 0, entries[0].PaidFeesCount)

	_, err = f.env.FamilyFee.Get(ctx, paid.ID)
	assert.Equal(t, familyfee.ErrNotFound, errors.Cause(err))
	assert.Equal(t, familyfee.ErrNotFound, errors.Cause(f.env.FamilyFee.Delete(ctx, paid.ID, actor)))
}

func TestService_Delete_LedgerGoesNegative(t *testing.T) {
	f := setup(t)
	ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students...), actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{PaidAmount: testutil.Dec("1500"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)

	// the automatic entry was lowered out of band
	_, err = f.env.Finance.ApplyDelta(ctx, key, finance.Delta{Income: testutil.Dec("-1000"), PaidFeesCount: -2}, actor)
	require.NoError(t, err)

	require.NoError(t, f.env.FamilyFee.Delete(ctx, ff.ID, actor))
	entries := automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "-1000", entries[0].Income)
	assert.Equal(t, -2, entries[0].PaidFeesCount)
}

func TestService_Delete_AfterPaidAmountEdited(t *testing.T) {
	f := setup(t)
	ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students[0]), actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{PaidAmount: testutil.Dec("1500"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)

	// editing a paid family fee posts nothing
	ff, err = f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{PaidAmount: testutil.Dec("2000"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)
	assert.True(t, ff.Paid)
	entries := automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "1500", entries[0].Income)

	// deleting reverses the current paid amount
	require.NoError(t, f.env.FamilyFee.Delete(ctx, ff.ID, actor))
	entries = automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	testutil.AssertDecimal(t, "-500", entries[0].Income)
	assert.Equal(t, 0, entries[0].PaidFeesCount)
}

func TestService_Delete_WithoutLedgerEntry(t *testing.T) {
	f := setup(t)
	ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee("Otieno", f.students[0]), actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, ff.ID, familyfee.Payment{PaidAmount: testutil.Dec("2000"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)

	entries := automaticEntries(t, f.env)
	require.Len(t, entries, 1)
	require.NoError(t, f.env.Finance.Delete(ctx, entries[0].ID))

	require.NoError(t, f.env.FamilyFee.Delete(ctx, ff.ID, actor))
	assert.Empty(t, automaticEntries(t, f.env))
}

func TestService_Statistics(t *testing.T) {
	f := setup(t)

	stats, err := f.env.FamilyFee.Statistics(ctx, familyfee.QueryFilter{})
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalFamilies)
	testutil.AssertDecimal(t, "0", stats.PaymentRate)

	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		ff, err := f.env.FamilyFee.Create(ctx, f.newFamilyFee(name, f.students[0]), actor)
		require.NoError(t, err)
		ids = append(ids, ff.ID)
	}
	_, err = f.env.FamilyFee.RecordPayment(ctx, ids[0], familyfee.Payment{PaidAmount: testutil.Dec("1500"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)
	_, err = f.env.FamilyFee.RecordPayment(ctx, ids[1], familyfee.Payment{PaidAmount: testutil.Dec("500"), PaymentMethod: "cash"}, actor)
	require.NoError(t, err)

	stats, err = f.env.FamilyFee.Statistics(ctx, familyfee.QueryFilter{Month: key.Month, Year: key.Year})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalFamilies)
	assert.Equal(t, 1, stats.PaidFamilies)
	assert.Equal(t, 2, stats.UnpaidFamilies)
	testutil.AssertDecimal(t, "4500", stats.TotalAmount)
	testutil.AssertDecimal(t, "2000", stats.PaidAmount)
	testutil.AssertDecimal(t, "33.33", stats.PaymentRate)

	ffs, err := f.env.FamilyFee.Query(ctx, familyfee.QueryFilter{Student: f.students[0]})
	require.NoError(t, err)
	assert.Len(t, ffs, 3)
	ffs, err = f.env.FamilyFee.Query(ctx, familyfee.QueryFilter{Student: f.students[1]})
	require.NoError(t, err)
	assert.Empty(t, ffs)
}
