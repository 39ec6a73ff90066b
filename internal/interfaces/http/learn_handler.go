package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/uuid"
	"github.com/pot-code/learn-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learn-gateway/internal/navigation"
)

// LearnHandler learn page navigation endpoints
type LearnHandler struct {
	navigation    navigation.NavigationUseCase
	jwtUtil       *auth.JWTUtil
	validator     validate.Validator
	sessionIDs    uuid.Generator
	sessionCookie string
	secureCookie  bool
}

// NewLearnHandler .
func NewLearnHandler(
	Navigation navigation.NavigationUseCase,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
	SessionIDs uuid.Generator,
	SessionCookie string,
	SecureCookie bool,
) *LearnHandler {
	return &LearnHandler{
		navigation:    Navigation,
		jwtUtil:       JWTUtil,
		validator:     Validator,
		sessionIDs:    SessionIDs,
		sessionCookie: SessionCookie,
		secureCookie:  SecureCookie,
	}
}

type lessonBody struct {
	LessonID int `json:"lesson_id" validate:"required,min=1"`
}

// HandleLearn GET /courses/:slug/learn?lesson=N
func (lh *LearnHandler) HandleLearn(c echo.Context) error {
	req, err := lh.request(c)
	if err != nil {
		return err
	}
	return lh.dispatch(c, req, navigation.URLChanged{Param: req.Param})
}

// HandleSelectLesson POST /courses/:slug/learn/select
func (lh *LearnHandler) HandleSelectLesson(c echo.Context) error {
	body, err := lh.bindLesson(c)
	if body == nil {
		return err
	}
	req, err := lh.request(c)
	if err != nil {
		return err
	}
	return lh.dispatch(c, req, navigation.UserSelectedLesson{LessonID: body.LessonID})
}

// HandleBackToGrid POST /courses/:slug/learn/grid
func (lh *LearnHandler) HandleBackToGrid(c echo.Context) error {
	req, err := lh.request(c)
	if err != nil {
		return err
	}
	return lh.dispatch(c, req, navigation.UserRequestedGrid{})
}

// HandleReload POST /courses/:slug/learn/reload?lesson=N, reconciles after a progress mutation
// against the lesson parameter of the page the client is on
func (lh *LearnHandler) HandleReload(c echo.Context) error {
	req, err := lh.request(c)
	if err != nil {
		return err
	}
	return lh.dispatch(c, req, navigation.DataLoaded{})
}

// HandleLessonReady POST /courses/:slug/learn/ready
func (lh *LearnHandler) HandleLessonReady(c echo.Context) error {
	body, err := lh.bindLesson(c)
	if body == nil {
		return err
	}
	req, err := lh.request(c)
	if err != nil {
		return err
	}
	return lh.dispatch(c, req, navigation.LessonReady{LessonID: body.LessonID})
}

func (lh *LearnHandler) dispatch(c echo.Context, req *navigation.Request, action navigation.Action) error {
	decision, err := lh.navigation.Dispatch(c.Request().Context(), req, action)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, decision)
}

// bindLesson a nil body means the response was already written
func (lh *LearnHandler) bindLesson(c echo.Context) (*lessonBody, error) {
	body := new(lessonBody)
	if err := c.Bind(body); err != nil {
		return nil, badRequest(c, "Failed to bind request body", nil)
	}
	if errs := lh.validator.Struct(body); errs != nil {
		return nil, badRequest(c, "Failed to validate fields", errs)
	}
	return body, nil
}

// request collects session, learner and the lesson parameter of the page url
func (lh *LearnHandler) request(c echo.Context) (*navigation.Request, error) {
	sessionID, err := lh.session(c)
	if err != nil {
		return nil, err
	}
	values, present := c.QueryParams()["lesson"]
	raw := ""
	if present && len(values) > 0 {
		raw = values[0]
	}
	return &navigation.Request{
		SessionID: sessionID,
		Slug:      c.Param("slug"),
		Learner:   lh.jwtUtil.GetContextLearner(c),
		Param:     navigation.NewLessonParam(raw, present),
	}, nil
}

// session reads the navigation session cookie, issuing one on first visit
func (lh *LearnHandler) session(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(lh.sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	id, err := lh.sessionIDs.Generate()
	if err != nil {
		return "", err
	}
	c.SetCookie(&http.Cookie{
		Name:     lh.sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   lh.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
