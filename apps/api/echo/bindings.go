package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/period"
)

// queryParams reads typed query parameters, keeping the first malformed one as a validation error.
type queryParams struct {
	ctx echo.Context
	err error
}

func newQueryParams(ctx echo.Context) *queryParams {
	return &queryParams{ctx: ctx}
}

func (qp *queryParams) String(name string) string {
	return strings.TrimSpace(qp.ctx.QueryParam(name))
}

func (qp *queryParams) Int(name string) int {
	val := qp.String(name)
	if val == "" {
		return 0
	}
	i, err := strconv.Atoi(val)
	if err != nil && qp.err == nil {
		qp.err = core.NewFieldValidationError(name, name+" must be an integer")
	}
	return i
}

func (qp *queryParams) Bool(name string) *bool {
	val := qp.String(name)
	if val == "" {
		return nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		if qp.err == nil {
			qp.err = core.NewFieldValidationError(name, name+" must be a boolean")
		}
		return nil
	}
	return &b
}

// Period reads the required month & year parameters.
func (qp *queryParams) Period() period.Key {
	key := period.NewKey(qp.Int("month"), qp.Int("year"))
	if qp.err == nil {
		if err := key.Validate(); err != nil {
			qp.err = core.NewValidationError(err)
		}
	}
	return key
}

func (qp *queryParams) Err() error {
	return qp.err
}

// bind decodes the request body into data.
func bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		return errors.Wrapf(err, "binding to %T", data)
	}
	return nil
}
