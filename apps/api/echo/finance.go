package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/finance"
)

type financeApi struct {
	svc *finance.Service
}

func registerFinanceAPI(g *echo.Group, svc *finance.Service) {
	api := financeApi{svc: svc}

	fg := g.Group("/finance")
	fg.POST("/create", api.create)
	fg.GET("", api.query)
	fg.GET("/summary", api.summary)
	fg.GET("/:id", api.retrieve)
	fg.DELETE("/:id", api.destroy)
}

func (api *financeApi) create(ctx echo.Context) error {
	var data finance.NewEntry
	if err := bind(ctx, &data); err != nil {
		return err
	}
	entry, err := api.svc.AddManualEntry(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Finance record created successfully", "financeRecord": entry})
}

func (api *financeApi) query(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	filter := finance.QueryFilter{
		Month:     qp.Int("month"),
		Year:      qp.Int("year"),
		Automatic: qp.Bool("automatic"),
	}
	if err := qp.Err(); err != nil {
		return err
	}
	entries, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"financeRecords": entries})
}

func (api *financeApi) summary(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	key := qp.Period()
	if err := qp.Err(); err != nil {
		return err
	}
	summary, err := api.svc.Summary(ctx.Request().Context(), key)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"summary": summary})
}

func (api *financeApi) retrieve(ctx echo.Context) error {
	entry, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"financeRecord": entry})
}

func (api *financeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Finance record deleted successfully"})
}
