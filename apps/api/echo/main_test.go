package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/testutil"
)

var testNow = time.Date(2024, time.May, 20, 9, 30, 0, 0, time.UTC)

type httpErr struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

type httpTest struct {
	name      string
	method    string
	path      string
	body      interface{}
	token     string
	wantCode  int
	wantError *httpErr
}

// setup wires a server on a fresh in-memory database, with time frozen at testNow.
func setup(t *testing.T) (*Server, *testutil.Env, string) {
	t.Helper()
	testutil.FreezeTime(t, testNow)
	env := testutil.NewEnv()
	app := NewServer(&Options{
		Conf:           env.Conf,
		Logger:         env.Logger,
		DisableReqLogs: true,
		SchoolSvc:      env.School,
		FeeSvc:         env.Fee,
		FamilyFeeSvc:   env.FamilyFee,
		SalarySvc:      env.Salary,
		FinanceSvc:     env.Finance,
		ExamSvc:        env.Exam,
	})
	return app, env, getToken(t, env.Conf, testutil.Actor)
}

func getToken(t *testing.T, conf *core.Config, actor core.Actor) string {
	t.Helper()
	token, err := GenerateToken(conf, NewClaims(conf, actor, time.Hour))
	require.NoError(t, err, "GenerateToken()")
	return token
}

func newAuthRequest(t *testing.T, method, path, token string, data interface{}) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()
	var body bytes.Buffer
	if data != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(data))
	}
	if method == "" {
		method = http.MethodGet
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

// do sends the request of tt and checks its status code and error body.
func do(t *testing.T, app *Server, tt httpTest) *httptest.ResponseRecorder {
	t.Helper()
	req, rec := newAuthRequest(t, tt.method, tt.path, tt.token, tt.body)
	app.ServeHTTP(rec, req)

	wantCode := tt.wantCode
	if wantCode == 0 {
		wantCode = http.StatusOK
	}
	assert.Equal(t, wantCode, rec.Code, rec.Body.String())
	if tt.wantError != nil {
		var got httpErr
		if assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)) {
			assert.Equal(t, tt.wantError.Message, got.Message)
			for field := range tt.wantError.Fields {
				assert.Contains(t, got.Fields, field)
			}
		}
	}
	return rec
}

func runHTTPTests(t *testing.T, app *Server, tests []httpTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			do(t, app, tt)
		})
	}
}

// decode reads the value at key of a JSON object response.
func decode(t *testing.T, rec *httptest.ResponseRecorder, key string, v interface{}) {
	t.Helper()
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	raw, ok := body[key]
	require.True(t, ok, "missing key %q in %s", key, rec.Body.String())
	require.NoError(t, json.Unmarshal(raw, v))
}
