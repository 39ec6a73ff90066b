package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/course"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
)

// CourseHandler course tree endpoints
type CourseHandler struct {
	courseUseCase course.CourseUseCase
	jwtUtil       *auth.JWTUtil
}

// NewCourseHandler .
func NewCourseHandler(CourseUseCase course.CourseUseCase, JWTUtil *auth.JWTUtil) *CourseHandler {
	handler := &CourseHandler{CourseUseCase, JWTUtil}
	return handler
}

// HandleGetCourse GET /courses/:slug
func (ch *CourseHandler) HandleGetCourse(c echo.Context) (err error) {
	learner := ch.jwtUtil.GetContextLearner(c)

	detail, err := ch.courseUseCase.GetCourseDetail(c.Request().Context(), c.Param("slug"), learner.Token)
	if errors.Is(err, course.ErrCourseNotFound) || errors.Is(err, course.ErrCourseMalformed) {
		return c.JSON(http.StatusNotFound,
			NewRESTStandardError(http.StatusNotFound, course.ErrCourseNotFound.Error()).SetTraceID(traceID(c)))
	}
	if err != nil {
		return upstreamError(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}
