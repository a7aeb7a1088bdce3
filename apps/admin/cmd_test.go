package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/core/school"
	"github.com/trezcool/bursar/testutil"
)

func setup(t *testing.T) (*commandLine, *testutil.Env, *bytes.Buffer) {
	testutil.FreezeTime(t, time.Date(2024, time.May, 20, 9, 30, 0, 0, time.UTC))
	env := testutil.NewEnv()
	out := new(bytes.Buffer)

	// start CLI
	return &commandLine{
		conf:       env.Conf,
		logger:     env.Logger,
		repos:      env.Repos,
		feeSvc:     env.Fee,
		salarySvc:  env.Salary,
		financeSvc: env.Finance,
		out:        out,
	}, env, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrStr)
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "migrate", args: []string{"migrate"}},
	})
	assert.Contains(t, out.String(), "inmem database is up to date")
}

func Test_commandLine_genfees(t *testing.T) {
	cli, env, out := setup(t)

	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	testutil.CreateStudent(t, env.SchoolRepo, "Awe", class.ID)
	testutil.CreateStudent(t, env.SchoolRepo, "Mbala", class.ID)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"genfees"}, wantErr: errHelp},
		{name: "missing due date", args: []string{"genfees", "-class", class.ID, "-amount", "150"}, wantErr: errHelp},
		{name: "bad amount", args: []string{"genfees", "-class", class.ID, "-amount", "lol", "-due", "2024-05-31"}, wantErrStr: "amount must be a decimal number"},
		{name: "bad due date", args: []string{"genfees", "-class", class.ID, "-amount", "150", "-due", "31/05/2024"}, wantErrStr: "due must be a date"},
		{name: "unknown class", args: []string{"genfees", "-class", "lol", "-amount", "150", "-month", "5", "-year", "2024", "-due", "2024-05-31"}, wantErr: school.ErrClassNotFound},
		{name: "generate", args: []string{"genfees", "-class", class.ID, "-amount", "150", "-month", "5", "-year", "2024", "-due", "2024-05-31"}},
		{name: "generate again", args: []string{"genfees", "-class", class.ID, "-amount", "150", "-month", "5", "-year", "2024", "-due", "2024-05-31"}},
	})

	fees, err := env.Fee.Query(context.Background(), fee.QueryFilter{Class: class.ID, Month: 5, Year: 2024})
	require.NoError(t, err)
	assert.Len(t, fees, 2)
	assert.Contains(t, out.String(), "2 fee records created, 0 already existed")
	assert.Contains(t, out.String(), "0 fee records created, 2 already existed")
}

func Test_commandLine_gensalaries(t *testing.T) {
	cli, env, out := setup(t)

	testutil.CreateTeacher(t, env.SchoolRepo, "Kabila", "kabila@test.cd", true)
	testutil.CreateTeacher(t, env.SchoolRepo, "Lumumba", "lumumba@test.cd", false)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"gensalaries"}, wantErr: errHelp},
		{name: "bad bonus", args: []string{"gensalaries", "-amount", "800", "-bonus", "lol"}, wantErrStr: "bonus must be a decimal number"},
		{name: "invalid month", args: []string{"gensalaries", "-amount", "800", "-month", "13", "-year", "2024"}, wantErrStr: "month must be 12 or less"},
		{name: "generate", args: []string{"gensalaries", "-amount", "800", "-bonus", "50", "-month", "5", "-year", "2024"}},
	})

	salaries, err := env.Salary.Query(context.Background(), salary.QueryFilter{Month: 5, Year: 2024})
	require.NoError(t, err)
	if assert.Len(t, salaries, 1) {
		testutil.AssertDecimal(t, "850", salaries[0].TotalAmount)
	}
	assert.Contains(t, out.String(), "1 salary records created, 0 already existed")
}

func Test_commandLine_summary(t *testing.T) {
	cli, env, out := setup(t)

	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	student := testutil.CreateStudent(t, env.SchoolRepo, "Awe", class.ID)
	f, err := env.Fee.Create(context.Background(), fee.NewFee{
		Student: student.ID,
		Amount:  testutil.Dec("150"),
		Month:   5,
		Year:    2024,
		DueDate: core.Now(),
	}, testutil.Actor)
	require.NoError(t, err)
	paid := true
	_, err = env.Fee.Update(context.Background(), f.ID, fee.UpdateFee{Paid: &paid}, testutil.Actor)
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "invalid period", args: []string{"summary", "-month", "0", "-year", "2024"}, wantErrStr: "month must be between 1 and 12"},
		{name: "summary", args: []string{"summary", "-month", "5", "-year", "2024"}},
	})

	var sum finance.Summary
	require.NoError(t, json.NewDecoder(strings.NewReader(out.String())).Decode(&sum))
	assert.Equal(t, "May", sum.MonthName)
	assert.Equal(t, 1, sum.PaidFeesCount)
	testutil.AssertDecimal(t, "150", sum.NetIncome)
}

func Test_commandLine_token(t *testing.T) {
	cli, env, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no id", args: []string{"token"}, wantErr: errHelp},
		{name: "bad ttl", args: []string{"token", "-id", "bursar-1", "-ttl", "lol"}, wantErr: errHelp},
		{name: "token", args: []string{"token", "-id", "bursar-1", "-name", "Bursar", "-ttl", "1h"}},
	})

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	claims := new(echoapi.Claims)
	_, err := jwt.ParseWithClaims(lines[len(lines)-1], claims, func(*jwt.Token) (interface{}, error) {
		return []byte(env.Conf.SecretKey), nil
	})
	require.NoError(t, err)
	assert.Equal(t, core.Actor{ID: "bursar-1", Name: "Bursar"}, claims.Actor())
}
