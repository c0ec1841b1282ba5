package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vacation-approval/internal/middleware"
	"vacation-approval/pkg/deputy"
	"vacation-approval/pkg/idgen"
	"vacation-approval/pkg/vacation"
)

// 2026-10-12 是星期一
var testNow = time.Date(2026, time.October, 12, 9, 0, 0, 0, time.UTC)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, port vacation.DeputyConflictPort, auth AuthConfig) *gin.Engine {
	t.Helper()
	ids, err := idgen.New(idgen.Config{WorkerID: 1})
	require.NoError(t, err)

	if port == nil {
		store := deputy.NewMemoryStore()
		require.NoError(t, deputy.Seed(context.Background(), store, testNow))
		port = deputy.NewService(store, nil)
	}

	h := NewVacationHandler(port, vacation.DefaultRulesConfig(), ids, 200*time.Millisecond,
		func() time.Time { return testNow }, zap.NewNop())
	return NewRouter(h, auth, zap.NewNop())
}

func body(deputyFirst, deputyLast, employeeLast string) []byte {
	return []byte(`{
		"employee": {"first_name": "Adam", "last_name": "` + employeeLast + `"},
		"deputy1": {"first_name": "` + deputyFirst + `", "last_name": "` + deputyLast + `", "email": "deputy@example.com"},
		"duration": {"from": "2026-10-13T00:00:00Z", "to": "2026-10-14T00:00:00Z"}
	}`)
}

func postValidate(router *gin.Engine, payload []byte, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/vacations/validate", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if len(header) == 2 {
		req.Header.Set(header[0], header[1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type validateBody struct {
	PassID  string            `json:"pass_id"`
	Valid   bool              `json:"valid"`
	Pending bool              `json:"pending"`
	Errors  map[string]string `json:"errors"`
	Result  map[string]any    `json:"result"`
	Error   string            `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) validateBody {
	t.Helper()
	var out validateBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndDocs(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidate_Valid(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	w := postValidate(router, body("Paul", "Newman", "Smith"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	out := decode(t, w)
	assert.True(t, out.Valid, "%v", out.Errors)
	assert.False(t, out.Pending)
	assert.NotEmpty(t, out.PassID)
	assert.Empty(t, out.Errors)
	assert.Equal(t, false, out.Result["has_errors"])
}

func TestValidate_DeputyConflict(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	out := decode(t, postValidate(router, body("John", "Smith", "Novak")))
	assert.False(t, out.Valid)
	assert.Equal(t, "Deputies conflict. Select another deputy.", out.Errors[vacation.DeputyConflict])
}

func TestValidate_FieldErrors(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	out := decode(t, postValidate(router, body("Paul", "Newman", "Smith toooooooooooooooooooooooooo long")))
	assert.False(t, out.Valid)
	assert.Equal(t, "Please enter no more than 15 characters.", out.Errors["Employee.LastName.maxlength"])
	assert.NotContains(t, out.Errors, "Employee.FirstName.maxlength")
}

func TestValidate_ConflictPending(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	port := vacation.PortFunc(func(ctx context.Context, r *vacation.Record) (bool, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return true, nil
	})
	router := newTestRouter(t, port, AuthConfig{})

	out := decode(t, postValidate(router, body("Paul", "Newman", "Smith")))
	assert.True(t, out.Pending)
	assert.False(t, out.Valid, "未完成的检查不当作通过")
}

func TestValidate_PortError(t *testing.T) {
	port := vacation.PortFunc(func(ctx context.Context, r *vacation.Record) (bool, error) {
		return false, errors.New("deputy service unavailable")
	})
	router := newTestRouter(t, port, AuthConfig{})

	w := postValidate(router, body("Paul", "Newman", "Smith"))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, decode(t, w).Error, "deputy service unavailable")
}

func TestValidate_BadBody(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	w := postValidate(router, []byte(`{"duration": {"from": "yesterday"}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidate_Auth(t *testing.T) {
	auth := AuthConfig{Secret: "secret", Issuer: "vacation-approval"}
	router := newTestRouter(t, nil, auth)

	w := postValidate(router, body("Paul", "Newman", "Smith"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := middleware.GenerateToken(auth.Secret, auth.Issuer, "approver", time.Hour)
	require.NoError(t, err)
	w = postValidate(router, body("Paul", "Newman", "Smith"), "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)

	// 健康检查不需要鉴权
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestDuration(t *testing.T) {
	router := newTestRouter(t, nil, AuthConfig{})

	tests := []struct {
		name   string
		query  string
		status int
		count  int
		over   bool
	}{
		{name: "一周", query: "from=2026-10-12&to=2026-10-18", status: http.StatusOK, count: 5},
		{name: "排除一天", query: "from=2026-10-12&to=2026-10-18&excluded=2026-10-14", status: http.StatusOK, count: 4},
		{name: "RFC3339", query: "from=2026-10-12T08:00:00Z&to=2026-10-12T17:00:00Z", status: http.StatusOK, count: 1},
		{name: "超过上限", query: "from=2026-10-12&to=2026-12-31", status: http.StatusOK, count: 80, over: true},
		{name: "无效开始日期", query: "from=tomorrow&to=2026-10-18", status: http.StatusBadRequest},
		{name: "无效排除日期", query: "from=2026-10-12&to=2026-10-18&excluded=x", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/vacations/duration?"+tt.query, nil))
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status != http.StatusOK {
				return
			}

			var out DurationResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
			assert.Equal(t, tt.count, out.VacationDaysCount)
			assert.Equal(t, tt.over, out.IsOverLimitRange)
			if tt.over {
				assert.Empty(t, out.RangeDays)
			}
		})
	}
}
