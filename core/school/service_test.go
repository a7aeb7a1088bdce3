package school_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/school"
	"github.com/trezcool/bursar/testutil"
)

var ctx = context.Background()

func TestService(t *testing.T) {
	env := testutil.NewEnv()
	svc := env.School

	class, err := svc.CreateClass(ctx, school.NewClass{Name: "  Grade 1 "})
	require.NoError(t, err)
	assert.Equal(t, "Grade 1", class.Name)

	_, err = svc.CreateClass(ctx, school.NewClass{Name: "   "})
	assert.True(t, core.IsValidation(err))

	student, err := svc.CreateStudent(ctx, school.NewStudent{Name: "Alice", Class: class.ID})
	require.NoError(t, err)
	assert.Empty(t, student.Fees)
	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "Carl"})
	require.NoError(t, err)
	_, err = svc.CreateStudent(ctx, school.NewStudent{Name: "Bob", Class: "nope"})
	assert.Equal(t, school.ErrClassNotFound, errors.Cause(err))

	students, err := svc.QueryStudents(ctx, school.StudentFilter{Class: class.ID})
	require.NoError(t, err)
	assert.Equal(t, []school.Student{student}, students)

	inactive := false
	teacher, err := svc.CreateTeacher(ctx, school.NewTeacher{Name: "Mr. Kamau", Email: "Kamau@Example.com"})
	require.NoError(t, err)
	assert.True(t, teacher.IsActive)
	assert.Equal(t, "kamau@example.com", teacher.Email)
	_, err = svc.CreateTeacher(ctx, school.NewTeacher{Name: "Mr. Retired", IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.CreateTeacher(ctx, school.NewTeacher{Name: "Ms. Typo", Email: "not-an-email"})
	assert.True(t, core.IsValidation(err))

	active := true
	teachers, err := svc.QueryTeachers(ctx, school.TeacherFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, []school.Teacher{teacher}, teachers)
	teachers, err = svc.QueryTeachers(ctx, school.TeacherFilter{})
	require.NoError(t, err)
	assert.Len(t, teachers, 2)

	subject, err := svc.CreateSubject(ctx, school.NewSubject{Name: "Biology", Class: class.ID})
	require.NoError(t, err)
	got, err := svc.GetSubject(ctx, subject.ID)
	require.NoError(t, err)
	assert.Equal(t, subject, got)
	_, err = svc.GetSubject(ctx, "nope")
	assert.Equal(t, school.ErrSubjectNotFound, errors.Cause(err))

	classes, err := svc.QueryClasses(ctx)
	require.NoError(t, err)
	assert.Equal(t, []school.Class{class}, classes)
}

func TestRepository_BackReferences(t *testing.T) {
	env := testutil.NewEnv()
	student := testutil.CreateStudent(t, env.SchoolRepo, "Alice", "")
	teacher := testutil.CreateTeacher(t, env.SchoolRepo, "Mr. Kamau", "", true)

	require.NoError(t, env.SchoolRepo.AddStudentFee(ctx, student.ID, "fee-1"))
	require.NoError(t, env.SchoolRepo.AddStudentFee(ctx, student.ID, "fee-1"))
	require.NoError(t, env.SchoolRepo.AddStudentExam(ctx, student.ID, "exam-1"))
	require.NoError(t, env.SchoolRepo.AddTeacherSalary(ctx, teacher.ID, "salary-1"))

	st, err := env.SchoolRepo.GetStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"fee-1"}, st.Fees)
	assert.Equal(t, []string{"exam-1"}, st.Exams)

	tchr, err := env.SchoolRepo.GetTeacher(ctx, teacher.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"salary-1"}, tchr.Salaries)

	err = env.SchoolRepo.AddStudentFee(ctx, "nope", "fee-2")
	assert.Equal(t, school.ErrStudentNotFound, errors.Cause(err))
}
