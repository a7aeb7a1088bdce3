package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/bursar/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}

	g.POST("/classes", api.createClass)
	g.GET("/classes", api.queryClasses)
	g.GET("/classes/:id", api.retrieveClass)

	g.POST("/students", api.createStudent)
	g.GET("/students", api.queryStudents)
	g.GET("/students/:id", api.retrieveStudent)

	g.POST("/teachers", api.createTeacher)
	g.GET("/teachers", api.queryTeachers)
	g.GET("/teachers/:id", api.retrieveTeacher)

	g.POST("/subjects", api.createSubject)
	g.GET("/subjects", api.querySubjects)
	g.GET("/subjects/:id", api.retrieveSubject)
}

// Classes

func (api *schoolApi) createClass(ctx echo.Context) error {
	var data school.NewClass
	if err := bind(ctx, &data); err != nil {
		return err
	}
	class, err := api.svc.CreateClass(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"class": class})
}

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	classes, err := api.svc.QueryClasses(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"classes": classes})
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	class, err := api.svc.GetClass(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"class": class})
}

// Students

func (api *schoolApi) createStudent(ctx echo.Context) error {
	var data school.NewStudent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	student, err := api.svc.CreateStudent(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"student": student})
}

func (api *schoolApi) queryStudents(ctx echo.Context) error {
	filter := school.StudentFilter{Class: newQueryParams(ctx).String("class")}
	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": students})
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	student, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"student": student})
}

// Teachers

func (api *schoolApi) createTeacher(ctx echo.Context) error {
	var data school.NewTeacher
	if err := bind(ctx, &data); err != nil {
		return err
	}
	teacher, err := api.svc.CreateTeacher(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"teacher": teacher})
}

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	qp := newQueryParams(ctx)
	filter := school.TeacherFilter{IsActive: qp.Bool("isActive")}
	if err := qp.Err(); err != nil {
		return err
	}
	teachers, err := api.svc.QueryTeachers(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teachers": teachers})
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	teacher, err := api.svc.GetTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"teacher": teacher})
}

// Subjects

func (api *schoolApi) createSubject(ctx echo.Context) error {
	var data school.NewSubject
	if err := bind(ctx, &data); err != nil {
		return err
	}
	subject, err := api.svc.CreateSubject(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"subject": subject})
}

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	filter := school.SubjectFilter{Class: newQueryParams(ctx).String("class")}
	subjects, err := api.svc.QuerySubjects(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"subjects": subjects})
}

func (api *schoolApi) retrieveSubject(ctx echo.Context) error {
	subject, err := api.svc.GetSubject(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"subject": subject})
}
