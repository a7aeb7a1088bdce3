package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/fee"
)

type feeApi struct {
	svc *fee.Service
}

func registerFeeAPI(g *echo.Group, svc *fee.Service) {
	api := feeApi{svc: svc}

	fg := g.Group("/fees")
	fg.POST("/create", api.create)
	fg.POST("/create-class", api.createForClass)
	fg.PUT("/update/:feeId", api.update)
	fg.GET("", api.query)
	fg.GET("/statistics", api.statistics)
	fg.GET("/:feeId", api.retrieve)
	fg.DELETE("/:feeId", api.destroy)
}

func feeFilter(ctx echo.Context) (fee.QueryFilter, error) {
	qp := newQueryParams(ctx)
	filter := fee.QueryFilter{
		Student: qp.String("student"),
		Class:   qp.String("class"),
		Month:   qp.Int("month"),
		Year:    qp.Int("year"),
		Paid:    qp.Bool("paid"),
	}
	return filter, qp.Err()
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewFee
	if err := bind(ctx, &data); err != nil {
		return err
	}
	f, err := api.svc.Create(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Fee record created successfully", "feeRecord": f})
}

func (api *feeApi) createForClass(ctx echo.Context) error {
	var data fee.NewClassFees
	if err := bind(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.CreateForClass(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *feeApi) update(ctx echo.Context) error {
	var data fee.UpdateFee
	if err := bind(ctx, &data); err != nil {
		return err
	}
	f, err := api.svc.Update(ctx.Request().Context(), ctx.Param("feeId"), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Fee record updated successfully", "feeRecord": f})
}

func (api *feeApi) query(ctx echo.Context) error {
	filter, err := feeFilter(ctx)
	if err != nil {
		return err
	}
	fees, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"feeRecords": fees})
}

func (api *feeApi) statistics(ctx echo.Context) error {
	filter, err := feeFilter(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Statistics(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"statistics": stats})
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.Get(ctx.Request().Context(), ctx.Param("feeId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"feeRecord": f})
}

func (api *feeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("feeId")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Fee record deleted successfully"})
}
