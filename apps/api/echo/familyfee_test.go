package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/testutil"
)

func Test_familyFeeApi(t *testing.T) {
	app, env, token := setup(t)

	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	awe := testutil.CreateStudent(t, env.SchoolRepo, "Awe", class.ID)
	mbala := testutil.CreateStudent(t, env.SchoolRepo, "Mbala", class.ID)

	newFamilyFee := map[string]interface{}{
		"familyName":  "  Kabongo ",
		"students":    []map[string]interface{}{{"student": awe.ID, "isPaying": true}, {"student": mbala.ID}},
		"totalAmount": "300",
		"month":       5,
		"year":        2024,
		"dueDate":     "2024-05-31T00:00:00Z",
	}

	rec := do(t, app, httpTest{method: http.MethodPost, path: "/api/family-fees/create", body: newFamilyFee, token: token, wantCode: http.StatusCreated})
	var ff familyfee.FamilyFee
	decode(t, rec, "familyFee", &ff)
	assert.Equal(t, "Kabongo", ff.FamilyName)
	assert.Len(t, ff.Students, 2)
	testutil.AssertDecimal(t, "0", ff.PaidAmount)

	automatic := func(t *testing.T) []finance.Entry {
		rec := do(t, app, httpTest{path: "/api/finance?automatic=true&month=5&year=2024", token: token})
		var entries []finance.Entry
		decode(t, rec, "financeRecords", &entries)
		return entries
	}

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: duplicate family", method: http.MethodPost, path: "/api/family-fees/create", body: newFamilyFee, token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: familyfee.ErrDuplicate.Error()},
		},
		{
			name: "create: unknown student", method: http.MethodPost, path: "/api/family-fees/create", token: token,
			body: map[string]interface{}{
				"familyName": "Ilunga", "students": []map[string]interface{}{{"student": "lol"}},
				"totalAmount": "100", "month": 5, "year": 2024, "dueDate": "2024-05-31T00:00:00Z",
			},
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "Student with ID lol not found", Fields: map[string]string{"students": ""}},
		},
		{
			name: "payment: missing method", method: http.MethodPut, path: "/api/family-fees/payment/" + ff.ID, token: token,
			body:     map[string]interface{}{"paidAmount": "100"},
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "paymentMethod is a required field"},
		},
		{
			name: "payment: not found", method: http.MethodPut, path: "/api/family-fees/payment/lol", token: token,
			body:     map[string]interface{}{"paidAmount": "100", "paymentMethod": "cash"},
			wantCode: http.StatusNotFound, wantError: &httpErr{Message: familyfee.ErrNotFound.Error()},
		},
	})

	// a partial payment leaves the ledger alone
	rec = do(t, app, httpTest{
		method: http.MethodPut, path: "/api/family-fees/payment/" + ff.ID, token: token,
		body: map[string]interface{}{"paidAmount": "100", "paymentMethod": "cash"},
	})
	decode(t, rec, "familyFee", &ff)
	assert.False(t, ff.Paid)
	assert.Empty(t, automatic(t))

	// full payment
	rec = do(t, app, httpTest{
		method: http.MethodPut, path: "/api/family-fees/payment/" + ff.ID, token: token,
		body: map[string]interface{}{"paidAmount": "300", "paymentMethod": "mobile money"},
	})
	decode(t, rec, "familyFee", &ff)
	assert.True(t, ff.Paid)
	assert.Equal(t, "mobile money", ff.PaymentMethod)
	if entries := automatic(t); assert.Len(t, entries, 1) {
		testutil.AssertDecimal(t, "300", entries[0].Income)
		assert.Equal(t, 2, entries[0].PaidFeesCount)
		assert.Equal(t, "May", entries[0].MonthName)
	}

	// query & statistics
	rec = do(t, app, httpTest{path: "/api/family-fees?familyName=kabongo&student=" + mbala.ID, token: token})
	var ffs []familyfee.FamilyFee
	decode(t, rec, "familyFees", &ffs)
	assert.Len(t, ffs, 1)

	rec = do(t, app, httpTest{path: "/api/family-fees/statistics?year=2024", token: token})
	var stats familyfee.Statistics
	decode(t, rec, "statistics", &stats)
	assert.Equal(t, 1, stats.TotalFamilies)
	testutil.AssertDecimal(t, "300", stats.PaidAmount)

	// deleting a paid family fee takes it out of the ledger
	do(t, app, httpTest{method: http.MethodDelete, path: "/api/family-fees/" + ff.ID, token: token})
	do(t, app, httpTest{path: "/api/family-fees/" + ff.ID, token: token, wantCode: http.StatusNotFound})
	if entries := automatic(t); assert.Len(t, entries, 1) {
		testutil.AssertDecimal(t, "0", entries[0].Income)
		assert.Equal(t, 0, entries[0].PaidFeesCount)
	}
}
