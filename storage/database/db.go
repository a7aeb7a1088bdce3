// Package database opens the configured storage engine and builds its repositories.
package database

import (
	"context"
	"fmt"
	"net/url"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/exam"
	"github.com/trezcool/bursar/core/familyfee"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/core/school"
	inmemdb "github.com/trezcool/bursar/storage/database/inmem"
	mongodb "github.com/trezcool/bursar/storage/database/mongo"
	sqlxrepos "github.com/trezcool/bursar/storage/database/sqlx"
)

// Repositories of one storage engine.
type Repositories struct {
	School    school.Repository
	Fee       fee.Repository
	FamilyFee familyfee.Repository
	Salary    salary.Repository
	Finance   finance.Repository
	Exam      exam.Repository

	migrate func(ctx context.Context, logger core.Logger) error
	close   func(ctx context.Context) error
}

// Migrate brings the schema (tables or indexes) of the engine up to date.
func (r *Repositories) Migrate(ctx context.Context, logger core.Logger) error {
	if r.migrate == nil {
		return nil
	}
	return r.migrate(ctx, logger)
}

func (r *Repositories) Close(ctx context.Context) error {
	if r.close == nil {
		return nil
	}
	return r.close(ctx)
}

// Open connects to the configured engine and waits for it to be ready.
func Open(ctx context.Context, conf *core.Config) (*Repositories, error) {
	switch conf.Database.Engine {
	case core.EngineInMem:
		return InMem(inmemdb.Open()), nil

	case core.EngineMongo:
		db, err := mongodb.Open(ctx, conf.Database.MongoURI, conf.Database.Name)
		if err != nil {
			return nil, err
		}
		return Mongo(db), nil

	case core.EnginePostgres, core.EngineSQLite:
		driver, dsn := sqlxrepos.DriverSQLite, sqlxrepos.SQLiteDSN(conf.Database.Path)
		if conf.Database.Engine == core.EnginePostgres {
			driver, dsn = sqlxrepos.DriverPostgres, postgresDSN(conf.Database.Name, false, conf)
		}
		db, err := sqlxrepos.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		if err = db.Ping(ctx); err != nil {
			_ = db.Close()
			return nil, errors.Wrap(err, "pinging database")
		}
		return SQL(db), nil

	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func InMem(db *inmemdb.DB) *Repositories {
	return &Repositories{
		School:    inmemdb.NewSchoolRepository(db),
		Fee:       inmemdb.NewFeeRepository(db),
		FamilyFee: inmemdb.NewFamilyFeeRepository(db),
		Salary:    inmemdb.NewSalaryRepository(db),
		Finance:   inmemdb.NewFinanceRepository(db),
		Exam:      inmemdb.NewExamRepository(db),
	}
}

func SQL(db *sqlxrepos.DB) *Repositories {
	return &Repositories{
		School:    sqlxrepos.NewSchoolRepository(db),
		Fee:       sqlxrepos.NewFeeRepository(db),
		FamilyFee: sqlxrepos.NewFamilyFeeRepository(db),
		Salary:    sqlxrepos.NewSalaryRepository(db),
		Finance:   sqlxrepos.NewFinanceRepository(db),
		Exam:      sqlxrepos.NewExamRepository(db),
		migrate:   db.Migrate,
		close:     func(context.Context) error { return db.Close() },
	}
}

func Mongo(db *mongodb.DB) *Repositories {
	return &Repositories{
		School:    mongodb.NewSchoolRepository(db),
		Fee:       mongodb.NewFeeRepository(db),
		FamilyFee: mongodb.NewFamilyFeeRepository(db),
		Salary:    mongodb.NewSalaryRepository(db),
		Finance:   mongodb.NewFinanceRepository(db),
		Exam:      mongodb.NewExamRepository(db),
		migrate:   db.EnsureIndexes,
		close:     db.Close,
	}
}

func postgresDSN(dbName string, admin bool, conf *core.Config) string {
	user := url.UserPassword(conf.Database.User, conf.Database.Password)
	if admin && conf.Database.AdminUser != "" {
		user = url.UserPassword(conf.Database.AdminUser, conf.Database.AdminPassword)
	}

	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     user,
		Host:     conf.DatabaseAddress(),
		Path:     dbName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// CreateIfNotExist creates the app user and the postgres database, connecting as the admin user.
// It is a no-op for the other engines.
func CreateIfNotExist(ctx context.Context, conf *core.Config) error {
	if conf.Database.Engine != core.EnginePostgres {
		return nil
	}

	admin, err := sqlxrepos.Open(sqlxrepos.DriverPostgres, postgresDSN("postgres", true, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = admin.Close() }()
	if err = admin.Ping(ctx); err != nil {
		return errors.Wrap(err, "pinging database")
	}
	if err = createAppUser(ctx, admin, conf); err != nil {
		return err
	}

	// create DB as app user
	db, err := sqlxrepos.Open(sqlxrepos.DriverPostgres, postgresDSN("postgres", false, conf))
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer func() { _ = db.Close() }()
	return createDB(ctx, db, conf)
}

func createAppUser(ctx context.Context, db *sqlxrepos.DB, conf *core.Config) error {
	if conf.Database.User == "" || conf.Database.User == conf.Database.AdminUser {
		return nil
	}

	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)", conf.Database.User); err != nil {
		return errors.Wrap(err, "checking app user")
	}
	if !exists {
		// identifiers & passwords cannot be bound as parameters
		q := fmt.Sprintf("CREATE USER %s CREATEDB ENCRYPTED PASSWORD '%s'", conf.Database.User, conf.Database.Password)
		if _, err := db.ExecContext(ctx, q); err != nil {
			return errors.Wrap(err, "creating app user")
		}
	}
	return nil
}

func createDB(ctx context.Context, db *sqlxrepos.DB, conf *core.Config) error {
	var exists bool
	if err := db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)", conf.Database.Name); err != nil {
		return errors.Wrap(err, "checking database")
	}
	if !exists {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", conf.Database.Name)); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	return nil
}
