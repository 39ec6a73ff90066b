package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/learn-gateway/internal/activity"
	"github.com/pot-code/learn-gateway/internal/course"
	infra "github.com/pot-code/learn-gateway/internal/infrastructure"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/driver"
	"github.com/pot-code/learn-gateway/internal/infrastructure/driver/drivertest"
	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
	"github.com/pot-code/learn-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learn-gateway/internal/interfaces/http/middleware"
	"github.com/pot-code/learn-gateway/internal/learner"
	"github.com/pot-code/learn-gateway/internal/navigation"
	"github.com/pot-code/learn-gateway/internal/progress"
	"github.com/pot-code/learn-gateway/internal/progression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubCourses struct {
	detail *course.CourseDetail
	err    error
}

func (s *stubCourses) GetCourseDetail(ctx context.Context, slug, token string) (*course.CourseDetail, error) {
	return s.detail, s.err
}

type stubNavigation struct {
	mu      sync.Mutex
	reqs    []*navigation.Request
	actions []navigation.Action
	err     error
}

func (s *stubNavigation) Dispatch(ctx context.Context, req *navigation.Request, action navigation.Action) (*navigation.Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	s.actions = append(s.actions, action)
	if s.err != nil {
		return nil, s.err
	}
	return &navigation.Decision{View: navigation.DecisionGrid}, nil
}

func (s *stubNavigation) last() (*navigation.Request, navigation.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1], s.actions[len(s.actions)-1]
}

type stubTracker struct {
	snapshot *progress.Snapshot
	err      error
	started  []int
}

func (s *stubTracker) StartLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*progression.Cursor, error) {
	if !l.Authenticated() {
		return nil, nil
	}
	s.started = append(s.started, lessonID)
	return progression.NewCursor(nil, lessonID), nil
}

func (s *stubTracker) CompleteLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*progress.Snapshot, error) {
	if !l.Authenticated() {
		return nil, nil
	}
	return s.snapshot, s.err
}

func (s *stubTracker) LoadProgressData(ctx context.Context, l *learner.Learner, courseID int) (*progress.Snapshot, error) {
	return s.snapshot, s.err
}

func (s *stubTracker) Cursor(ctx context.Context, l *learner.Learner, courseID int) (*progression.Cursor, error) {
	return s.snapshot.Cursor(), s.err
}

type stubActivity struct {
	userID string
	limit  int
}

func (s *stubActivity) Record(ctx context.Context, userID string, courseID, lessonID int, kind activity.Kind) (*activity.Activity, error) {
	return &activity.Activity{UserID: userID, CourseID: courseID, LessonID: lessonID, Kind: kind}, nil
}

func (s *stubActivity) ListRecent(ctx context.Context, userID string, limit int) ([]*activity.Activity, error) {
	s.userID = userID
	s.limit = limit
	return []*activity.Activity{{ID: "act_1", UserID: userID, Kind: activity.KindStarted}}, nil
}

type sequenceIDs struct{ n int }

func (s *sequenceIDs) Generate() (string, error) {
	s.n++
	return fmt.Sprintf("session-%d", s.n), nil
}

type testApp struct {
	app        *echo.Echo
	jwtUtil    *auth.JWTUtil
	kv         *drivertest.MemoryKV
	courses    *stubCourses
	navigation *stubNavigation
	tracker    *stubTracker
	activity   *stubActivity
}

func newTestApp() *testApp {
	ta := &testApp{
		jwtUtil:    auth.NewJWTUtil("HS256", "secret", "token"),
		kv:         drivertest.NewMemoryKV(),
		courses:    &stubCourses{},
		navigation: &stubNavigation{},
		tracker:    &stubTracker{snapshot: &progress.Snapshot{Percentage: 50, CompletedLessonsCount: 1, TotalLessons: 2}},
		activity:   &stubActivity{},
	}
	tokenOption := &middleware.ValidateTokenOption{
		InBlackList: func(ctx context.Context, token string) (bool, error) {
			return ta.kv.Exists(ctx, BlacklistKey(token))
		},
	}
	validator := validate.NewValidator()
	ta.app = echo.New()
	createEndpoint(ta.app, v1Endpoint(
		NewCourseHandler(ta.courses, ta.jwtUtil),
		NewLearnHandler(ta.navigation, ta.jwtUtil, validator, &sequenceIDs{}, "learn_session", false),
		NewProgressHandler(ta.tracker, ta.jwtUtil, validator),
		NewActivityHandler(ta.activity, ta.jwtUtil, validator),
		NewProgressFeedHandler(ta.tracker, ta.jwtUtil, infra.NewWebsocket()),
		NewSessionHandler(ta.jwtUtil, ta.kv),
		middleware.VerifyToken(ta.jwtUtil, tokenOption),
		middleware.OptionalToken(ta.jwtUtil, tokenOption),
		echo_middleware.RequestID(),
		middleware.SetTraceLogger(zap.NewNop()),
	))
	return ta
}

func (ta *testApp) token(t *testing.T) string {
	claims := &auth.AppTokenClaims{UID: "u1", Name: "learner"}
	claims.ExpiresAt = time.Now().Add(time.Hour).Unix()
	token, err := ta.jwtUtil.Sign(claims)
	require.NoError(t, err)
	return token
}

func (ta *testApp) do(method, target, body, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	ta.app.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func TestHandleGetCourse(t *testing.T) {
	ta := newTestApp()

	t.Run("found", func(t *testing.T) {
		ta.courses.detail = &course.CourseDetail{Course: &course.Course{ID: 7}, HasAccess: true}
		ta.courses.err = nil
		rec := ta.do(http.MethodGet, "/api/v1/courses/go-basics", "", "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"has_access":true`)
	})

	t.Run("not found", func(t *testing.T) {
		ta.courses.err = course.ErrCourseNotFound
		rec := ta.do(http.MethodGet, "/api/v1/courses/missing", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed renders as not found", func(t *testing.T) {
		ta.courses.err = course.ErrCourseMalformed
		rec := ta.do(http.MethodGet, "/api/v1/courses/broken", "", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upstream failure", func(t *testing.T) {
		ta.courses.err = &restapi.APIError{Message: "boom", Status: http.StatusServiceUnavailable}
		rec := ta.do(http.MethodGet, "/api/v1/courses/go-basics", "", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)

		var body RESTUpstreamError
		decode(t, rec, &body)
		assert.Equal(t, "boom", body.Message)
		assert.Equal(t, http.StatusServiceUnavailable, body.Status)
		assert.True(t, body.Retryable)
		assert.NotEmpty(t, body.TraceID)
	})
}

func TestHandleLearn(t *testing.T) {
	ta := newTestApp()

	rec := ta.do(http.MethodGet, "/api/v1/courses/go-basics/learn?lesson=189", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	req, action := ta.navigation.last()
	assert.Equal(t, "go-basics", req.Slug)
	assert.Equal(t, "session-1", req.SessionID)
	assert.False(t, req.Learner.Authenticated())
	assert.Equal(t, navigation.URLChanged{Param: navigation.NewLessonParam("189", true)}, action)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "learn_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// the issued session is reused and the lesson parameter may be absent
	rec = ta.do(http.MethodGet, "/api/v1/courses/go-basics/learn", "", ta.token(t), cookies[0])
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	req, action = ta.navigation.last()
	assert.Equal(t, "session-1", req.SessionID)
	assert.Equal(t, "u1", req.Learner.ID)
	assert.Equal(t, navigation.URLChanged{Param: navigation.NoLessonParam}, action)
}

func TestHandleLearnUpstreamFailure(t *testing.T) {
	ta := newTestApp()
	ta.navigation.err = &restapi.APIError{Message: "network error, please try again"}

	rec := ta.do(http.MethodGet, "/api/v1/courses/go-basics/learn", "", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body RESTUpstreamError
	decode(t, rec, &body)
	assert.Equal(t, 0, body.Status)
	assert.True(t, body.Retryable)
}

func TestLearnActions(t *testing.T) {
	ta := newTestApp()
	session := &http.Cookie{Name: "learn_session", Value: "s1"}

	rec := ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/select", `{"lesson_id":3}`, "", session)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, action := ta.navigation.last()
	assert.Equal(t, navigation.UserSelectedLesson{LessonID: 3}, action)

	rec = ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/grid", "", "", session)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, action = ta.navigation.last()
	assert.Equal(t, navigation.UserRequestedGrid{}, action)

	rec = ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/ready", `{"lesson_id":3}`, "", session)
	assert.Equal(t, http.StatusOK, rec.Code)
	_, action = ta.navigation.last()
	assert.Equal(t, navigation.LessonReady{LessonID: 3}, action)

	rec = ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/reload?lesson=4", "", "", session)
	assert.Equal(t, http.StatusOK, rec.Code)
	req, action := ta.navigation.last()
	assert.Equal(t, navigation.DataLoaded{}, action)
	assert.Equal(t, "s1", req.SessionID)
	assert.Equal(t, navigation.NewLessonParam("4", true), req.Param)

	dispatched := len(ta.navigation.actions)
	rec = ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/select", `{"lesson_id":0}`, "", session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body RESTValidationError
	decode(t, rec, &body)
	require.Len(t, body.InvalidParams, 1)
	assert.Equal(t, "lesson_id", body.InvalidParams[0].Domain)

	rec = ta.do(http.MethodPost, "/api/v1/courses/go-basics/learn/select", `{"lesson_id":`, "", session)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, dispatched, len(ta.navigation.actions), "invalid bodies are not dispatched")
}

func TestProgressEndpoints(t *testing.T) {
	ta := newTestApp()
	token := ta.token(t)

	t.Run("get requires a token", func(t *testing.T) {
		rec := ta.do(http.MethodGet, "/api/v1/progress/course/7", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		rec = ta.do(http.MethodGet, "/api/v1/progress/course/7", "", token)
		assert.Equal(t, http.StatusOK, rec.Code)
		var body progressResponse
		decode(t, rec, &body)
		assert.Equal(t, 50.0, body.Progress.Percentage)
	})

	t.Run("bad course id", func(t *testing.T) {
		rec := ta.do(http.MethodGet, "/api/v1/progress/course/abc", "", token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("anonymous start is a no-op", func(t *testing.T) {
		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/3/start", `{"course_id":7}`, "")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, ta.tracker.started)
	})

	t.Run("start", func(t *testing.T) {
		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/3/start", `{"course_id":7}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int{3}, ta.tracker.started)
		assert.Contains(t, rec.Body.String(), `"current_lesson_id":3`)
	})

	t.Run("complete", func(t *testing.T) {
		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/3/complete", `{"course_id":7}`, token)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"progress"`)
	})

	t.Run("complete accepted but reload failed", func(t *testing.T) {
		ta.tracker.err = progress.ErrProgressUnconfirmed
		defer func() { ta.tracker.err = nil }()

		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/3/complete", `{"course_id":7}`, token)
		assert.Equal(t, http.StatusAccepted, rec.Code)
		var body progressResponse
		decode(t, rec, &body)
		assert.Nil(t, body.Progress)
		assert.True(t, body.Pending)
	})

	t.Run("invalid mutation", func(t *testing.T) {
		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/0/complete", `{"course_id":7}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ta.do(http.MethodPost, "/api/v1/progress/lessons/3/complete", `{}`, token)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("upstream rejects", func(t *testing.T) {
		ta.tracker.err = &restapi.APIError{Message: "lesson is locked", Status: http.StatusForbidden}
		defer func() { ta.tracker.err = nil }()

		rec := ta.do(http.MethodPost, "/api/v1/progress/lessons/3/complete", `{"course_id":7}`, token)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var body RESTUpstreamError
		decode(t, rec, &body)
		assert.Equal(t, http.StatusForbidden, body.Status)
		assert.False(t, body.Retryable)
	})
}

func TestHandleListActivity(t *testing.T) {
	ta := newTestApp()
	token := ta.token(t)

	rec := ta.do(http.MethodGet, "/api/v1/activity", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(http.MethodGet, "/api/v1/activity?limit=5", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", ta.activity.userID)
	assert.Equal(t, 5, ta.activity.limit)

	rec = ta.do(http.MethodGet, "/api/v1/activity", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, ta.activity.limit)

	rec = ta.do(http.MethodGet, "/api/v1/activity?limit=-1", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body RESTValidationError
	decode(t, rec, &body)
	require.Len(t, body.InvalidParams, 1)
	assert.Equal(t, "limit must be 1 or greater", body.InvalidParams[0].Reason)

	rec = ta.do(http.MethodGet, "/api/v1/activity?limit=ten", "", token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSignOut(t *testing.T) {
	ta := newTestApp()
	token := ta.token(t)

	rec := ta.do(http.MethodPut, "/api/v1/session/sign-out", "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ta.do(http.MethodPut, "/api/v1/session/sign-out", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(http.MethodPut, "/api/v1/session/sign-out", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, ta.kv.Keys(), BlacklistKey(token))

	// revoked tokens are rejected by protected routes and ignored by optional ones
	rec = ta.do(http.MethodGet, "/api/v1/progress/course/7", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.do(http.MethodGet, "/api/v1/courses/go-basics/learn", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)
	req, _ := ta.navigation.last()
	assert.False(t, req.Learner.Authenticated())
}

func TestHandleProgressFeed(t *testing.T) {
	ta := newTestApp()
	server := httptest.NewServer(ta.app)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws/progress/7"
	header := http.Header{}
	header.Set(echo.HeaderAuthorization, "Bearer "+ta.token(t))
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("refresh")))
	var msg feedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NotNil(t, msg.Progress)
	assert.Equal(t, 2, msg.Progress.TotalLessons)
	assert.Nil(t, msg.Error)

	_, _, err = websocket.DefaultDialer.Dial(url, nil)
	assert.Error(t, err, "feed requires a token")
}

func TestAllowOrigins(t *testing.T) {
	check := allowOrigins([]string{"http://127.0.0.1:8080"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req), "non browser clients send no origin")

	req.Header.Set("Origin", "http://127.0.0.1:8080")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))

	assert.True(t, allowOrigins([]string{"*"})(req))
}

func TestUpstreamErrorPassesOtherErrors(t *testing.T) {
	app := echo.New()
	c := app.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	cause := errors.New("db down")
	assert.Equal(t, cause, upstreamError(c, cause))
}

type pingDB struct{ err error }

func (db *pingDB) ExecContext(ctx context.Context, query string, args ...interface{}) (int64, error) {
	return 0, nil
}

func (db *pingDB) QueryContext(ctx context.Context, query string, args ...interface{}) (driver.Rows, error) {
	return nil, errors.New("not supported")
}

func (db *pingDB) Ping(ctx context.Context) error { return db.err }
func (db *pingDB) Close() error                   { return nil }

func TestLivenessProbe(t *testing.T) {
	db := &pingDB{}
	kv := drivertest.NewMemoryKV()
	app := echo.New()
	registerLivenessProbe(app, db, kv)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	db.err = errors.New("connection refused")
	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateEndpointRejectsUnknownMethod(t *testing.T) {
	assert.Panics(t, func() {
		createEndpoint(echo.New(), &endpoint{
			apiVersion: "api/v1",
			groups: []*apiGroup{{
				prefix: "/x",
				routes: []*route{{"PATCHY", "", func(c echo.Context) error { return nil }, nil}},
			}},
		})
	})
}
