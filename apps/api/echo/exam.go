package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/exam"
)

type examApi struct {
	svc *exam.Service
}

func registerExamAPI(g *echo.Group, svc *exam.Service) {
	api := examApi{svc: svc}

	eg := g.Group("/exams")
	eg.POST("/create", api.create)
	eg.POST("/createClassExam", api.createForClass)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
}

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := bind(ctx, &data); err != nil {
		return err
	}
	e, err := api.svc.Create(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Exam record created successfully", "data": e})
}

func (api *examApi) createForClass(ctx echo.Context) error {
	var data exam.NewClassExam
	if err := bind(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.CreateForClass(ctx.Request().Context(), data, getActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *examApi) query(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	filter := exam.QueryFilter{
		Student:      qp.String("student"),
		Class:        qp.String("class"),
		Subject:      qp.String("subject"),
		ExamType:     qp.String("examType"),
		AcademicYear: qp.String("academicYear"),
	}
	exams, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"data": exams})
}

func (api *examApi) retrieve(ctx echo.Context) error {
	e, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"data": e})
}
