package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/testutil"
)

func Test_feeApi(t *testing.T) {
	app, env, token := setup(t)

	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	awe := testutil.CreateStudent(t, env.SchoolRepo, "Awe", class.ID)
	mbala := testutil.CreateStudent(t, env.SchoolRepo, "Mbala", class.ID)
	orphan := testutil.CreateStudent(t, env.SchoolRepo, "Orphan", "")

	newFee := func(student string) map[string]interface{} {
		return map[string]interface{}{
			"student": student,
			"amount":  "150.50",
			"month":   5,
			"year":    2024,
			"dueDate": "2024-05-31T00:00:00Z",
		}
	}

	// create
	rec := do(t, app, httpTest{method: http.MethodPost, path: "/api/fees/create", body: newFee(awe.ID), token: token, wantCode: http.StatusCreated})
	var created fee.Fee
	decode(t, rec, "feeRecord", &created)
	assert.Equal(t, awe.ID, created.Student)
	assert.Equal(t, class.ID, created.Class)
	assert.Equal(t, testutil.Actor.ID, created.CreatedBy)
	testutil.AssertDecimal(t, "150.5", created.Amount)
	assert.False(t, created.Paid)

	badMonth := newFee(mbala.ID)
	badMonth["month"] = 13

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: missing fields", method: http.MethodPost, path: "/api/fees/create", body: map[string]interface{}{}, token: token,
			wantCode:  http.StatusBadRequest,
			wantError: &httpErr{Message: "student is a required field", Fields: map[string]string{"student": "", "amount": "", "dueDate": ""}},
		},
		{
			name: "create: invalid month", method: http.MethodPost, path: "/api/fees/create", body: badMonth, token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "month must be 12 or less", Fields: map[string]string{"month": ""}},
		},
		{
			name: "create: duplicate", method: http.MethodPost, path: "/api/fees/create", body: newFee(awe.ID), token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: fee.ErrDuplicate.Error()},
		},
		{
			name: "create: unknown student", method: http.MethodPost, path: "/api/fees/create", body: newFee("lol"), token: token,
			wantCode: http.StatusNotFound, wantError: &httpErr{Message: "Student not found"},
		},
		{
			name: "create: student without class", method: http.MethodPost, path: "/api/fees/create", body: newFee(orphan.ID), token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "Student is not assigned to a class", Fields: map[string]string{"student": ""}},
		},
		{name: "create: malformed body", method: http.MethodPost, path: "/api/fees/create", body: "lol", token: token, wantCode: http.StatusBadRequest},
		{name: "retrieve: not found", path: "/api/fees/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: fee.ErrNotFound.Error()}},
		{
			name: "query: bad paid", path: "/api/fees?paid=lol", token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "paid must be a boolean", Fields: map[string]string{"paid": ""}},
		},
		{
			name: "query: bad month", path: "/api/fees?month=may", token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "month must be an integer"},
		},
	})

	// create for class skips the students already billed
	rec = do(t, app, httpTest{
		method: http.MethodPost, path: "/api/fees/create-class", token: token, wantCode: http.StatusCreated,
		body: map[string]interface{}{"classId": class.ID, "amount": 150, "month": 5, "year": 2024, "dueDate": "2024-05-31T00:00:00Z"},
	})
	var res fee.ClassFeesResult
	decode(t, rec, "created", &res.Created)
	decode(t, rec, "existingStudents", &res.ExistingStudents)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"Awe"}, res.ExistingStudents)

	// update
	rec = do(t, app, httpTest{
		method: http.MethodPut, path: "/api/fees/update/" + created.ID, token: token,
		body: map[string]interface{}{"paid": true, "note": " cash "},
	})
	var updated fee.Fee
	decode(t, rec, "feeRecord", &updated)
	assert.True(t, updated.Paid)
	require.NotNil(t, updated.PaidDate)
	assert.True(t, testNow.Equal(*updated.PaidDate))
	assert.Equal(t, "cash", updated.Note)

	// query
	rec = do(t, app, httpTest{path: "/api/fees?paid=true&month=5&year=2024", token: token})
	var fees []fee.Fee
	decode(t, rec, "feeRecords", &fees)
	if assert.Len(t, fees, 1) {
		assert.Equal(t, created.ID, fees[0].ID)
	}

	// statistics
	rec = do(t, app, httpTest{path: "/api/fees/statistics?class=" + class.ID, token: token})
	var stats fee.Statistics
	decode(t, rec, "statistics", &stats)
	assert.Equal(t, 2, stats.TotalFees)
	assert.Equal(t, 1, stats.PaidFees)
	testutil.AssertDecimal(t, "300.5", stats.TotalAmount)
	testutil.AssertDecimal(t, "150", stats.UnpaidAmount)

	// delete
	do(t, app, httpTest{method: http.MethodDelete, path: "/api/fees/" + created.ID, token: token})
	do(t, app, httpTest{path: "/api/fees/" + created.ID, token: token, wantCode: http.StatusNotFound})
	do(t, app, httpTest{method: http.MethodDelete, path: "/api/fees/" + created.ID, token: token, wantCode: http.StatusNotFound})
}
