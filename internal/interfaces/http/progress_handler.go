package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/validate"
	"github.com/pot-code/learn-gateway/internal/progress"
)

// ProgressHandler progress endpoints
type ProgressHandler struct {
	tracker   progress.Tracker
	jwtUtil   *auth.JWTUtil
	validator validate.Validator
}

// NewProgressHandler .
func NewProgressHandler(Tracker progress.Tracker, JWTUtil *auth.JWTUtil, Validator validate.Validator) *ProgressHandler {
	handler := &ProgressHandler{Tracker, JWTUtil, Validator}
	return handler
}

type courseBody struct {
	CourseID int `json:"course_id" validate:"required,min=1"`
}

type progressResponse struct {
	Progress *progress.Snapshot `json:"progress"`
	Pending  bool               `json:"pending,omitempty"`
}

// HandleGetProgress GET /progress/course/:courseId
func (ph *ProgressHandler) HandleGetProgress(c echo.Context) error {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		return badRequest(c, "Failed to validate params", []*validate.FieldError{
			validate.NewFieldError("courseId", "courseId must be a positive integer"),
		})
	}

	snapshot, err := ph.tracker.LoadProgressData(c.Request().Context(), ph.jwtUtil.GetContextLearner(c), courseID)
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, &progressResponse{Progress: snapshot})
}

// HandleStartLesson POST /progress/lessons/:lessonId/start, anonymous learners get 204
func (ph *ProgressHandler) HandleStartLesson(c echo.Context) error {
	lessonID, body, err := ph.bindMutation(c)
	if body == nil {
		return err
	}

	cursor, err := ph.tracker.StartLesson(c.Request().Context(), ph.jwtUtil.GetContextLearner(c), body.CourseID, lessonID)
	if err != nil {
		return upstreamError(c, err)
	}
	if cursor == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, cursor)
}

// HandleCompleteLesson POST /progress/lessons/:lessonId/complete, anonymous learners get 204.
// A completion whose snapshot reload failed is answered with 202 and a null progress
func (ph *ProgressHandler) HandleCompleteLesson(c echo.Context) error {
	lessonID, body, err := ph.bindMutation(c)
	if body == nil {
		return err
	}

	snapshot, err := ph.tracker.CompleteLesson(c.Request().Context(), ph.jwtUtil.GetContextLearner(c), body.CourseID, lessonID)
	if errors.Is(err, progress.ErrProgressUnconfirmed) {
		return c.JSON(http.StatusAccepted, &progressResponse{Pending: true})
	}
	if err != nil {
		return upstreamError(c, err)
	}
	if snapshot == nil {
		return c.NoContent(http.StatusNoContent)
	}
	return c.JSON(http.StatusOK, &progressResponse{Progress: snapshot})
}

// bindMutation a nil body means the response was already written
func (ph *ProgressHandler) bindMutation(c echo.Context) (int, *courseBody, error) {
	lessonID, ok := pathID(c, "lessonId")
	if !ok {
		return 0, nil, badRequest(c, "Failed to validate params", []*validate.FieldError{
			validate.NewFieldError("lessonId", "lessonId must be a positive integer"),
		})
	}
	body := new(courseBody)
	if err := c.Bind(body); err != nil {
		return 0, nil, badRequest(c, "Failed to bind request body", nil)
	}
	if errs := ph.validator.Struct(body); errs != nil {
		return 0, nil, badRequest(c, "Failed to validate fields", errs)
	}
	return lessonID, body, nil
}

func pathID(c echo.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
