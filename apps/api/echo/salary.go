package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/salary"
)

type salaryApi struct {
	svc *salary.Service
}

func registerSalaryAPI(g *echo.Group, svc *salary.Service) {
	api := salaryApi{svc: svc}

	sg := g.Group("/salaries")
	sg.POST("/create", api.create)
	sg.POST("/create-all", api.createForAll)
	sg.PUT("/update/:salaryId", api.update)
	sg.GET("", api.query)
	sg.GET("/statistics", api.statistics)
	sg.GET("/:salaryId", api.retrieve)
	sg.DELETE("/:salaryId", api.destroy)
}

func salaryFilter(ctx echo.Context) (salary.QueryFilter, error) {
	qp := newQueryParams(ctx)
	filter := salary.QueryFilter{
		Teacher: qp.String("teacher"),
		Month:   qp.Int("month"),
		Year:    qp.Int("year"),
		Paid:    qp.Bool("paid"),
	}
	return filter, qp.Err()
}

func (api *salaryApi) create(ctx echo.Context) error {
	var data salary.NewSalary
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sal, err := api.svc.Create(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Salary record created successfully", "salaryRecord": sal})
}

func (api *salaryApi) createForAll(ctx echo.Context) error {
	var data salary.NewBulkSalaries
	if err := bind(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.CreateForAll(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *salaryApi) update(ctx echo.Context) error {
	var data salary.UpdateSalary
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sal, err := api.svc.Update(ctx.Request().Context(), ctx.Param("salaryId"), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Salary record updated successfully", "salaryRecord": sal})
}

func (api *salaryApi) query(ctx echo.Context) error {
	filter, err := salaryFilter(ctx)
	if err != nil {
		return err
	}
	salaries, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"salaryRecords": salaries})
}

func (api *salaryApi) statistics(ctx echo.Context) error {
	filter, err := salaryFilter(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Statistics(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"statistics": stats})
}

func (api *salaryApi) retrieve(ctx echo.Context) error {
	sal, err := api.svc.Get(ctx.Request().Context(), ctx.Param("salaryId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"salaryRecord": sal})
}

func (api *salaryApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("salaryId")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Salary record deleted successfully"})
}
