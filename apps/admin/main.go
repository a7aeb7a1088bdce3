package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/salary"
	emailsvc "github.com/trezcool/bursar/services/email"
	eventsvc "github.com/trezcool/bursar/services/events"
	logsvc "github.com/trezcool/bursar/services/logger"
	"github.com/trezcool/bursar/storage/database"
)

const setupTimeout = time.Minute

var logger core.Logger

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger = logsvc.NewRollbarLogger(std, conf)

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	// set up DB
	repos, err := database.Open(ctx, conf)
	errAndDie(err)
	defer func() { _ = repos.Close(context.Background()) }()

	events, closeEvents, err := eventsvc.NewPublisher(conf)
	errAndDie(err)
	defer func() { _ = closeEvents() }()

	mailSvc := emailsvc.NewService(conf, logger)

	// start CLI
	cli := commandLine{
		conf:       conf,
		logger:     logger,
		repos:      repos,
		feeSvc:     fee.NewService(repos.Fee, repos.School, events, logger),
		salarySvc:  salary.NewService(repos.Salary, repos.School, mailSvc, events, logger),
		financeSvc: finance.NewService(repos.Finance, repos.Fee, repos.Salary, events, logger),
		out:        os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
