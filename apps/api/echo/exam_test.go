package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core/exam"
	"github.com/trezcool/bursar/testutil"
)

func Test_examApi(t *testing.T) {
	app, env, token := setup(t)

	class := testutil.CreateClass(t, env.SchoolRepo, "Grade 5")
	awe := testutil.CreateStudent(t, env.SchoolRepo, "Awe", class.ID)
	mbala := testutil.CreateStudent(t, env.SchoolRepo, "Mbala", class.ID)
	outsider := testutil.CreateStudent(t, env.SchoolRepo, "Outsider", "")
	teacher := testutil.CreateTeacher(t, env.SchoolRepo, "Kabila", "kabila@test.cd", true)
	maths := testutil.CreateSubject(t, env.SchoolRepo, "Maths", class.ID)
	french := testutil.CreateSubject(t, env.SchoolRepo, "French", class.ID)

	newExam := func(obtained float64, date string) map[string]interface{} {
		return map[string]interface{}{
			"student": awe.ID, "class": class.ID, "teacher": teacher.ID, "subjectId": maths.ID,
			"examType": exam.TypeMidTerm, "date": date, "obtainedMarks": obtained, "totalMarks": 50,
		}
	}

	rec := do(t, app, httpTest{method: http.MethodPost, path: "/api/exams/create", body: newExam(42, "2024-05-10T00:00:00Z"), token: token, wantCode: http.StatusCreated})
	var scored exam.ScoredExam
	decode(t, rec, "data", &scored)
	assert.Equal(t, 84.0, scored.Percentage)
	assert.Equal(t, "B", scored.Grade)
	assert.Equal(t, "2023/2024", scored.AcademicYear)

	badType := newExam(42, "2024-05-10T00:00:00Z")
	badType["examType"] = "lol"

	runHTTPTests(t, app, []httpTest{
		{
			name: "create: duplicate", method: http.MethodPost, path: "/api/exams/create", body: newExam(40, "2024-05-11T00:00:00Z"), token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: exam.ErrDuplicate.Error()},
		},
		{
			name: "create: marks above total", method: http.MethodPost, path: "/api/exams/create", body: newExam(51, "2024-05-10T00:00:00Z"), token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "Obtained marks cannot exceed total marks.", Fields: map[string]string{"obtainedMarks": ""}},
		},
		{
			name: "create: future date", method: http.MethodPost, path: "/api/exams/create", body: newExam(40, "2024-06-01T00:00:00Z"), token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "Exam date cannot be in the future.", Fields: map[string]string{"date": ""}},
		},
		{
			name: "create: bad exam type", method: http.MethodPost, path: "/api/exams/create", body: badType, token: token,
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "examType must be one of mid-term, final, quiz, assignment", Fields: map[string]string{"examType": ""}},
		},
		{
			name: "class exam: student outside class", method: http.MethodPost, path: "/api/exams/createClassExam", token: token,
			body: map[string]interface{}{
				"examType": exam.TypeFinal, "date": "2024-05-10T00:00:00Z", "classId": class.ID, "subjectId": french.ID, "totalMarks": 20,
				"marksList": []map[string]interface{}{{"studentId": outsider.ID, "obtainedMarks": 10}},
			},
			wantCode: http.StatusBadRequest, wantError: &httpErr{Message: "Student with ID " + outsider.ID + " does not belong to this class"},
		},
		{name: "retrieve: not found", path: "/api/exams/lol", token: token, wantCode: http.StatusNotFound, wantError: &httpErr{Message: exam.ErrNotFound.Error()}},
	})

	rec = do(t, app, httpTest{
		method: http.MethodPost, path: "/api/exams/createClassExam", token: token, wantCode: http.StatusCreated,
		body: map[string]interface{}{
			"examType": exam.TypeFinal, "date": "2024-05-10T00:00:00Z", "classId": class.ID, "subjectId": french.ID, "totalMarks": 20,
			"marksList": []map[string]interface{}{{"studentId": awe.ID, "obtainedMarks": 19}, {"studentId": mbala.ID, "obtainedMarks": 11}},
		},
	})
	var res exam.ClassExamResult
	decode(t, rec, "examsCount", &res.ExamsCount)
	decode(t, rec, "data", &res.Data)
	assert.Equal(t, 2, res.ExamsCount)
	if assert.Len(t, res.Data, 2) {
		assert.Equal(t, "A", res.Data[0].Grade)
		assert.Equal(t, "F", res.Data[1].Grade)
		assert.Equal(t, testutil.Actor.ID, res.Data[0].Teacher)
	}

	rec = do(t, app, httpTest{path: "/api/exams?student=" + awe.ID + "&academicYear=2023/2024", token: token})
	var exams []exam.ScoredExam
	decode(t, rec, "data", &exams)
	assert.Len(t, exams, 2)

	do(t, app, httpTest{path: "/api/exams/" + scored.ID, token: token})
}
