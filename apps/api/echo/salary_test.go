package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/testutil"
)

func Test_salaryApi(t *testing.T) {
	app, env, token := setup(t)

	kabila := testutil.CreateTeacher(t, env.SchoolRepo, "Kabila", "kabila@test.cd", true)
	testutil.CreateTeacher(t, env.SchoolRepo, "Lumumba", "lumumba@test.cd", true)
	testutil.CreateTeacher(t, env.SchoolRepo, "Mobutu", "", false)

	rec := do(t, app, httpTest{
		method: http.MethodPost, path: "/api/salaries/create", token: token, wantCode: http.StatusCreated,
		body: map[string]interface{}{"teacher": kabila.ID, "amount": "800", "bonus": "50", "deductions": "20.5", "month": 5, "year": 2024},
	})
	var sal salary.Salary
	decode(t, rec, "salaryRecord", &sal)
	testutil.AssertDecimal(t, "829.5", sal.TotalAmount)

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: duplicate", method: http.MethodPost, path: "/api/salaries/create", token: token,
			body:     map[string]interface{}{"teacher": kabila.ID, "amount": "800", "month": 5, "year": 2024},
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: salary.ErrDuplicate.Error()},
		},
		{
			name: "create: negative bonus", method: http.MethodPost, path: "/api/salaries/create", token: token,
			body:     map[string]interface{}{"teacher": kabila.ID, "amount": "800", "bonus": "-1", "month": 6, "year": 2024},
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "bonus must be 0 or greater", Fields: map[string]string{"bonus": ""}},
		},
		{
			name: "create: unknown teacher", method: http.MethodPost, path: "/api/salaries/create", token: token,
			body:     map[string]interface{}{"teacher": "lol", "amount": "800", "month": 5, "year": 2024},
			wantCode: http.StatusNotFound, wantError: &httpErr{Message: "Teacher not found"},
		},
		{name: "retrieve: not found", path: "/api/salaries/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: salary.ErrNotFound.Error()}},
	})

	// bulk creation only covers active teachers without a salary
	rec = do(t, app, httpTest{
		method: http.MethodPost, path: "/api/salaries/create-all", token: token, wantCode: http.StatusCreated,
		body: map[string]interface{}{"amount": "700", "month": 5, "year": 2024},
	})
	var res salary.BulkSalariesResult
	decode(t, rec, "created", &res.Created)
	decode(t, rec, "existingTeachers", &res.ExistingTeachers)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, []string{"Kabila"}, res.ExistingTeachers)

	// paying sends the payslip
	rec = do(t, app, httpTest{
		method: http.MethodPut, path: "/api/salaries/update/" + sal.ID, token: token,
		body: map[string]interface{}{"paid": true},
	})
	decode(t, rec, "salaryRecord", &sal)
	assert.True(t, sal.Paid)
	require.NotNil(t, sal.PaidDate)
	if sent := env.Mail.SentMessages(); assert.Len(t, sent, 1) {
		assert.Equal(t, "kabila@test.cd", sent[0].To[0].Address)
		assert.Equal(t, "Payslip May 2024", sent[0].Subject)
	}
	if evts := env.Events.Events(); assert.NotEmpty(t, evts) {
		assert.Equal(t, core.EventSalaryPaid, evts[len(evts)-1].Type)
	}

	rec = do(t, app, httpTest{path: "/api/salaries/statistics?month=5&year=2024", token: token})
	var stats salary.Statistics
	decode(t, rec, "statistics", &stats)
	assert.Equal(t, 2, stats.TotalSalaries)
	assert.Equal(t, 1, stats.PaidSalaries)
	testutil.AssertDecimal(t, "1529.5", stats.TotalAmount)

	rec = do(t, app, httpTest{path: "/api/salaries?paid=false", token: token})
	var salaries []salary.Salary
	decode(t, rec, "salaryRecords", &salaries)
	assert.Len(t, salaries, 1)

	do(t, app, httpTest{method: http.MethodDelete, path: "/api/salaries/" + sal.ID, token: token})
	do(t, app, httpTest{path: "/api/salaries/" + sal.ID, token: token, wantCode: http.StatusNotFound})
}
