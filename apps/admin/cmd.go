package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/finance"
	"github.com/trezcool/bursar/core/period"
	"github.com/trezcool/bursar/core/salary"
	"github.com/trezcool/bursar/storage/database"
)

const dateLayout = "2006-01-02"

var (
	errHelp = errors.New("help provided")

	cliActor = core.Actor{ID: "admin-cli", Name: "Admin CLI"}
)

type commandLine struct {
	conf       *core.Config
	logger     core.Logger
	repos      *database.Repositories
	feeSvc     *fee.Service
	salarySvc  *salary.Service
	financeSvc *finance.Service
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate - create or update the database schema")
	fmt.Fprintln(cli.out, "  genfees -class ID -amount AMOUNT -month M -year Y -due YYYY-MM-DD [-note NOTE] - generate the fees of a class")
	fmt.Fprintln(cli.out, "  gensalaries -amount AMOUNT -month M -year Y [-bonus B] [-deductions D] [-note NOTE] - generate the salaries of active teachers")
	fmt.Fprintln(cli.out, "  summary -month M -year Y - print the financial summary of a period")
	fmt.Fprintln(cli.out, "  token -id ID [-name NAME] [-ttl DURATION] - issue an API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	genFeesCmd := flag.NewFlagSet("genfees", flag.ContinueOnError)
	genFeesCmd.SetOutput(cli.out)
	genFeesClass := genFeesCmd.String("class", "", "The class ID.")
	genFeesAmount := genFeesCmd.String("amount", "", "The fee amount of each student.")
	genFeesMonth := genFeesCmd.Int("month", 0, "The fee month (1-12).")
	genFeesYear := genFeesCmd.Int("year", 0, "The fee year.")
	genFeesDue := genFeesCmd.String("due", "", "The due date (YYYY-MM-DD).")
	genFeesNote := genFeesCmd.String("note", "", "An optional note.")

	genSalariesCmd := flag.NewFlagSet("gensalaries", flag.ContinueOnError)
	genSalariesCmd.SetOutput(cli.out)
	genSalariesAmount := genSalariesCmd.String("amount", "", "The base salary of each teacher.")
	genSalariesMonth := genSalariesCmd.Int("month", 0, "The salary month (1-12).")
	genSalariesYear := genSalariesCmd.Int("year", 0, "The salary year.")
	genSalariesBonus := genSalariesCmd.String("bonus", "0", "The bonus of each teacher.")
	genSalariesDeductions := genSalariesCmd.String("deductions", "0", "The deductions of each teacher.")
	genSalariesNote := genSalariesCmd.String("note", "", "An optional note.")

	summaryCmd := flag.NewFlagSet("summary", flag.ContinueOnError)
	summaryCmd.SetOutput(cli.out)
	summaryMonth := summaryCmd.Int("month", 0, "The month (1-12).")
	summaryYear := summaryCmd.Int("year", 0, "The year.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenCmd.SetOutput(cli.out)
	tokenID := tokenCmd.String("id", "", "The ID of the token holder.")
	tokenName := tokenCmd.String("name", "", "The display name of the token holder.")
	tokenTTL := tokenCmd.Duration("ttl", 24*time.Hour, "The validity of the token.")

	ctx := context.Background()

	switch args[1] {
	case "migrate":
		return cli.migrate(ctx)

	case "genfees":
		if err := genFeesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *genFeesClass == "" || *genFeesAmount == "" || *genFeesDue == "" {
			genFeesCmd.Usage()
			return errHelp
		}
		amount, err := parseAmount("amount", *genFeesAmount)
		if err != nil {
			return err
		}
		due, err := time.Parse(dateLayout, *genFeesDue)
		if err != nil {
			return core.NewFieldValidationError("due", "due must be a date of form YYYY-MM-DD")
		}
		return cli.generateFees(ctx, fee.NewClassFees{
			Class:   *genFeesClass,
			Amount:  amount,
			Month:   *genFeesMonth,
			Year:    *genFeesYear,
			DueDate: due,
			Note:    *genFeesNote,
		})

	case "gensalaries":
		if err := genSalariesCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *genSalariesAmount == "" {
			genSalariesCmd.Usage()
			return errHelp
		}
		amount, err := parseAmount("amount", *genSalariesAmount)
		if err != nil {
			return err
		}
		bonus, err := parseAmount("bonus", *genSalariesBonus)
		if err != nil {
			return err
		}
		deductions, err := parseAmount("deductions", *genSalariesDeductions)
		if err != nil {
			return err
		}
		return cli.generateSalaries(ctx, salary.NewBulkSalaries{
			Amount:     amount,
			Month:      *genSalariesMonth,
			Year:       *genSalariesYear,
			Bonus:      bonus,
			Deductions: deductions,
			Note:       *genSalariesNote,
		})

	case "summary":
		if err := summaryCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.summary(ctx, period.NewKey(*summaryMonth, *summaryYear))

	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *tokenID == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(core.Actor{ID: *tokenID, Name: *tokenName}, *tokenTTL)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(ctx context.Context) error {
	if err := database.CreateIfNotExist(ctx, cli.conf); err != nil {
		return err
	}
	if err := cli.repos.Migrate(ctx, cli.logger); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s database is up to date\n", cli.conf.Database.Engine)
	return nil
}

func (cli *commandLine) generateFees(ctx context.Context, ncf fee.NewClassFees) error {
	res, err := cli.feeSvc.CreateForClass(ctx, ncf, cliActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d fee records created, %d already existed\n", res.Created, res.Existing)
	return nil
}

func (cli *commandLine) generateSalaries(ctx context.Context, nbs salary.NewBulkSalaries) error {
	res, err := cli.salarySvc.CreateForAll(ctx, nbs, cliActor)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%d salary records created, %d already existed\n", res.Created, res.Existing)
	return nil
}

func (cli *commandLine) summary(ctx context.Context, key period.Key) error {
	sum, err := cli.financeSvc.Summary(ctx, key)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}

func (cli *commandLine) token(actor core.Actor, ttl time.Duration) error {
	tok, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, actor, ttl))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, tok)
	return nil
}

func parseAmount(name, val string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, core.NewFieldValidationError(name, name+" must be a decimal number")
	}
	return amount, nil
}
