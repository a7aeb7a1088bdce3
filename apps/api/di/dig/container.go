package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
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
)

// setupTimeout bounds connecting to & migrating the database at startup.
const setupTimeout = time.Minute

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// EventsCloser closes the connection of the event publisher.
type EventsCloser func() error

type repositories struct {
	dig.Out
	School    school.Repository
	Fee       fee.Repository
	FamilyFee familyfee.Repository
	Salary    salary.Repository
	Finance   finance.Repository
	Exam      exam.Repository
}

type serverParams struct {
	dig.In
	Conf         *core.Config
	Logger       core.Logger
	SchoolSvc    *school.Service
	FeeSvc       *fee.Service
	FamilyFeeSvc *familyfee.Service
	SalarySvc    *salary.Service
	FinanceSvc   *finance.Service
	ExamSvc      *exam.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (*database.Repositories, error) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	setUp := func() (*database.Repositories, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}
		repos, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err = repos.Migrate(ctx, loggerParam.Logger); err != nil {
			_ = repos.Close(ctx)
			return nil, err
		}
		return repos, nil
	}

	repos, err := setUp()
	if err != nil {
		loggerParam.Logger.Error(fmt.Sprintf("setting up %s database: %v", conf.Database.Engine, err), err)
		return nil, err
	}
	return repos, nil
}

func splitRepositories(repos *database.Repositories) repositories {
	return repositories{
		School:    repos.School,
		Fee:       repos.Fee,
		FamilyFee: repos.FamilyFee,
		Salary:    repos.Salary,
		Finance:   repos.Finance,
		Exam:      repos.Exam,
	}
}

func newEventPublisher(conf *core.Config) (core.EventPublisher, EventsCloser, error) {
	pub, closeFn, err := eventsvc.NewPublisher(conf)
	return pub, closeFn, err
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Conf:         p.Conf,
		Logger:       p.Logger,
		SchoolSvc:    p.SchoolSvc,
		FeeSvc:       p.FeeSvc,
		FamilyFeeSvc: p.FamilyFeeSvc,
		SalarySvc:    p.SalarySvc,
		FinanceSvc:   p.FinanceSvc,
		ExamSvc:      p.ExamSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(splitRepositories))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newEventPublisher))

	must(c.Provide(func(repo fee.Repository) finance.FeeSource { return repo }))
	must(c.Provide(func(repo salary.Repository) finance.SalarySource { return repo }))
	must(c.Provide(func(svc *finance.Service) familyfee.Ledger { return svc }))

	must(c.Provide(school.NewService))
	must(c.Provide(fee.NewService))
	must(c.Provide(familyfee.NewService))
	must(c.Provide(salary.NewService))
	must(c.Provide(finance.NewService))
	must(c.Provide(exam.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
