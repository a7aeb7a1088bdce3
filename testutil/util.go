// Package testutil holds fixtures shared by tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/exam"
	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/core/school"
	emailsvc "github.com/trezcool/bursar/services/email"
	eventsvc "github.com/trezcool/bursar/services/events"
	logsvc "github.com/trezcool/bursar/services/logger"
	"github.com/trezcool/bursar/storage/database"
	inmemdb "github.com/trezcool/bursar/storage/database/inmem"
)

var Actor = core.Actor{ID: "bursar-1", Name: "Bursar"}

func Config() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = false
	conf.Database.Engine = core.EngineInMem
	conf.AMQP.URL = ""
	return conf
}

func Logger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// FreezeTime makes core.Now return now until the test ends.
func FreezeTime(t *testing.T, now time.Time) {
	t.Helper()
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return now }
	t.Cleanup(func() { core.NowFunc = orig })
}

// Env wires every service on one set of repositories.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Repos      *database.Repositories
	SchoolRepo school.Repository
	Mail       *emailsvc.ConsoleServiceMock
	Events     *eventsvc.Recorder

	School    *school.Service
	Fee       *fee.Service
	FamilyFee *familyfee.Service
	Salary    *salary.Service
	Finance   *finance.Service
	Exam      *exam.Service
}

// NewEnv wires every service on a fresh in-memory database.
func NewEnv() *Env {
	return NewEnvOn(database.InMem(inmemdb.Open()))
}

func NewEnvOn(repos *database.Repositories) *Env {
	conf := Config()
	logger := Logger(conf)
	env := &Env{
		Conf:       conf,
		Logger:     logger,
		Repos:      repos,
		SchoolRepo: repos.School,
		Mail:       emailsvc.NewConsoleServiceMock(conf, logger),
		Events:     new(eventsvc.Recorder),
	}
	env.School = school.NewService(repos.School)
	env.Fee = fee.NewService(repos.Fee, repos.School, env.Events, logger)
	env.Salary = salary.NewService(repos.Salary, repos.School, env.Mail, env.Events, logger)
	env.Finance = finance.NewService(repos.Finance, repos.Fee, repos.Salary, env.Events, logger)
	env.FamilyFee = familyfee.NewService(repos.FamilyFee, repos.School, env.Finance, env.Events, logger)
	env.Exam = exam.NewService(repos.Exam, repos.School, logger)
	return env
}

func CreateClass(t *testing.T, repo school.Repository, name string) school.Class {
	t.Helper()
	class, err := repo.CreateClass(context.Background(), school.Class{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return class
}

func CreateStudent(t *testing.T, repo school.Repository, name, classID string) school.Student {
	t.Helper()
	student, err := repo.CreateStudent(context.Background(), school.Student{
		ID:        uuid.NewString(),
		Name:      name,
		Class:     classID,
		Fees:      []string{},
		Exams:     []string{},
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return student
}

func CreateTeacher(t *testing.T, repo school.Repository, name, email string, isActive bool) school.Teacher {
	t.Helper()
	teacher, err := repo.CreateTeacher(context.Background(), school.Teacher{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		IsActive:  isActive,
		Salaries:  []string{},
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return teacher
}

func CreateSubject(t *testing.T, repo school.Repository, name, classID string) school.Subject {
	t.Helper()
	subject, err := repo.CreateSubject(context.Background(), school.Subject{
		ID:        uuid.NewString(),
		Name:      name,
		Class:     classID,
		CreatedAt: core.Now(),
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return subject
}

// Dec parses a decimal, failing on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// AssertDecimal checks that got equals want, ignoring the exponent.
func AssertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.True(t, Dec(want).Equal(got), append([]interface{}{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}
