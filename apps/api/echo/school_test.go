package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core/school"
)

func Test_schoolApi(t *testing.T) {
	app, _, token := setup(t)

	rec := do(t, app, httpTest{method: http.MethodPost, path: "/api/classes", body: map[string]string{"name": " Grade 5 "}, token: token, wantCode: http.StatusCreated})
	var class school.Class
	decode(t, rec, "class", &class)
	assert.Equal(t, "Grade 5", class.Name)

	rec = do(t, app, httpTest{method: http.MethodPost, path: "/api/students", body: map[string]string{"name": "Awe", "class": class.ID}, token: token, wantCode: http.StatusCreated})
	var student school.Student
	decode(t, rec, "student", &student)
	assert.Equal(t, class.ID, student.Class)

	rec = do(t, app, httpTest{method: http.MethodPost, path: "/api/teachers", body: map[string]interface{}{"name": "Kabila", "email": "Kabila@Test.cd", "isActive": false}, token: token, wantCode: http.StatusCreated})
	var teacher school.Teacher
	decode(t, rec, "teacher", &teacher)
	assert.Equal(t, "kabila@test.cd", teacher.Email)
	assert.False(t, teacher.IsActive)

	rec = do(t, app, httpTest{method: http.MethodPost, path: "/api/subjects", body: map[string]string{"name": "Maths", "class": class.ID}, token: token, wantCode: http.StatusCreated})
	var subject school.Subject
	decode(t, rec, "subject", &subject)

	runHTTPTests(t, app, []httpTest{
		{
			name: "class: blank name", method: http.MethodPost, path: "/api/classes", body: map[string]string{"name": "  "}, token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "name cannot be blank", Fields: map[string]string{"name": ""}},
		},
		{
			name: "student: unknown class", method: http.MethodPost, path: "/api/students", body: map[string]string{"name": "Awe", "class": "lol"}, token: token,
			wantCode: http.StatusNotFound, wantError: &httpErr{Message: school.ErrClassNotFound.Error()},
		},
		{
			name: "teacher: bad email", method: http.MethodPost, path: "/api/teachers", body: map[string]string{"name": "Kabila", "email": "lol"}, token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "email must be a valid email address", Fields: map[string]string{"email": ""}},
		},
		{name: "class: not found", path: "/api/classes/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: school.ErrClassNotFound.Error()}},
		{name: "student: not found", path: "/api/students/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: school.ErrStudentNotFound.Error()}},
		{name: "teacher: not found", path: "/api/teachers/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: school.ErrTeacherNotFound.Error()}},
		{name: "subject: not found", path: "/api/subjects/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: school.ErrSubjectNotFound.Error()}},
		{name: "class: retrieve", path: "/api/classes/" + class.ID, token: token},
		{name: "student: retrieve", path: "/api/students/" + student.ID, token: token},
		{name: "teacher: retrieve", path: "/api/teachers/" + teacher.ID, token: token},
		{name: "subject: retrieve", path: "/api/subjects/" + subject.ID, token: token},
	})

	rec = do(t, app, httpTest{path: "/api/classes", token: token})
	var classes []school.Class
	decode(t, rec, "classes", &classes)
	assert.Len(t, classes, 1)

	rec = do(t, app, httpTest{path: "/api/students?class=" + class.ID, token: token})
	var students []school.Student
	decode(t, rec, "students", &students)
	assert.Len(t, students, 1)

	rec = do(t, app, httpTest{path: "/api/students?class=lol", token: token})
	decode(t, rec, "students", &students)
	assert.Empty(t, students)
}
