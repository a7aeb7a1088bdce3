package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/familyfee"
)

type familyFeeApi struct {
	svc *familyfee.Service
}

func registerFamilyFeeAPI(g *echo.Group, svc *familyfee.Service) {
	api := familyFeeApi{svc: svc}

	fg := g.Group("/family-fees")
	fg.POST("/create", api.create)
	fg.PUT("/payment/:id", api.recordPayment)
	fg.GET("", api.query)
	fg.GET("/statistics", api.statistics)
	fg.GET("/:id", api.retrieve)
	fg.DELETE("/:id", api.destroy)
}

func familyFeeFilter(ctx echo.Context) (familyfee.QueryFilter, error) {
	qp := newQueryParams(ctx)
	filter := familyfee.QueryFilter{
		FamilyName: qp.String("familyName"),
		Student:    qp.String("student"),
		Month:      qp.Int("month"),
		Year:       qp.Int("year"),
		Paid:       qp.Bool("paid"),
	}
	return filter, qp.Err()
}

func (api *familyFeeApi) create(ctx echo.Context) error {
	var data familyfee.NewFamilyFee
	if err := bind(ctx, &data); err != nil {
		return err
	}
	ff, err := api.svc.Create(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Family fee record created successfully", "familyFee": ff})
}

func (api *familyFeeApi) recordPayment(ctx echo.Context) error {
	var data familyfee.Payment
	if err := bind(ctx, &data); err != nil {
		return err
	}
	ff, err := api.svc.RecordPayment(ctx.Request().Context(), ctx.Param("id"), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Payment recorded successfully", "familyFee": ff})
}

func (api *familyFeeApi) query(ctx echo.Context) error {
	filter, err := familyFeeFilter(ctx)
	if err != nil {
		return err
	}
	ffs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"familyFees": ffs})
}

func (api *familyFeeApi) statistics(ctx echo.Context) error {
	filter, err := familyFeeFilter(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Statistics(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"statistics": stats})
}

func (api *familyFeeApi) retrieve(ctx echo.Context) error {
	ff, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"familyFee": ff})
}

func (api *familyFeeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), getActor(ctx)); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Family fee record deleted successfully"})
}
