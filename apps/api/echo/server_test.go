package echoapi_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/testutil"
)

func TestServer_public(t *testing.T) {
	app, _, _ := setup(t)

	rec := do(t, app, httpTest{path: "/"})
	assert.Equal(t, "Welcome to Masomo Bursar API!", rec.Body.String())

	rec = do(t, app, httpTest{path: "/health/"})
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_auth(t *testing.T) {
	app, env, token := setup(t)

	expired, err := GenerateToken(env.Conf, NewClaims(env.Conf, testutil.Actor, -time.Minute))
	assert.NoError(t, err)
	otherConf := *env.Conf
	otherConf.SecretKey = "lol"
	forged := getToken(t, &otherConf, testutil.Actor)
	anonymous := getToken(t, env.Conf, core.Actor{})

	runHTTPTests(t, app, []httpTest{
		{name: "missing token", path: "/api/fees", wantCode: http.StatusUnauthorized, wantError: &httpErr{Message: "missing or malformed jwt"}},
		{name: "expired token", path: "/api/fees", token: expired, wantCode: http.StatusUnauthorized, wantError: &httpErr{Message: "invalid or expired jwt"}},
		{name: "forged token", path: "/api/fees", token: forged, wantCode: http.StatusUnauthorized, wantError: &httpErr{Message: "invalid or expired jwt"}},
		{name: "token without subject", path: "/api/fees", token: anonymous, wantCode: http.StatusUnauthorized, wantError: &httpErr{Message: "user not authenticated"}},
		{name: "valid token", path: "/api/fees", token: token},
		{name: "unknown route", path: "/api/lol", token: token, wantCode: http.StatusNotFound},
	})
}

func TestServer_metrics(t *testing.T) {
	app, _, token := setup(t)

	do(t, app, httpTest{path: "/api/fees", token: token})
	do(t, app, httpTest{path: "/api/fees/lol", token: token, wantCode: http.StatusNotFound})

	rec := do(t, app, httpTest{path: "/metrics"})
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `bursar_http_requests_total{code="200",method="GET",route="/api/fees"} 1`), body)
	assert.True(t, strings.Contains(body, `bursar_http_requests_total{code="404",method="GET",route="/api/fees/:feeId"} 1`), body)
	assert.Contains(t, body, "bursar_http_request_duration_seconds")
	assert.Contains(t, body, "go_goroutines")
}

func TestServer_SignalShutdown(t *testing.T) {
	app, _, _ := setup(t)

	app.SignalShutdown()
	app.SignalShutdown() // does not block

	select {
	case <-app.ShutdownSignal():
	default:
		t.Fatal("shutdown was not signaled")
	}
}
