package http

import (
	"github.com/labstack/echo/v4"
)

func v1Endpoint(
	CourseHandler *CourseHandler,
	LearnHandler *LearnHandler,
	ProgressHandler *ProgressHandler,
	ActivityHandler *ActivityHandler,
	ProgressFeedHandler *ProgressFeedHandler,
	SessionHandler *SessionHandler,
	jwtMiddleware echo.MiddlewareFunc,
	optionalTokenMiddleware echo.MiddlewareFunc,
	requestIDMiddleware echo.MiddlewareFunc,
	traceLoggerMiddleware echo.MiddlewareFunc,
) *endpoint {
	return &endpoint{
		apiVersion:  "api/v1",
		middlewares: []echo.MiddlewareFunc{requestIDMiddleware, traceLoggerMiddleware},
		groups: []*apiGroup{
			{
				prefix:      "/courses",
				middlewares: []echo.MiddlewareFunc{optionalTokenMiddleware},
				routes: []*route{
					{"GET", "/:slug", CourseHandler.HandleGetCourse, nil},
					{"GET", "/:slug/learn", LearnHandler.HandleLearn, nil},
					{"POST", "/:slug/learn/select", LearnHandler.HandleSelectLesson, nil},
					{"POST", "/:slug/learn/grid", LearnHandler.HandleBackToGrid, nil},
					{"POST", "/:slug/learn/ready", LearnHandler.HandleLessonReady, nil},
					{"POST", "/:slug/learn/reload", LearnHandler.HandleReload, nil},
				},
			},
			{
				prefix: "/progress",
				routes: []*route{
					{"GET", "/course/:courseId", ProgressHandler.HandleGetProgress, []echo.MiddlewareFunc{jwtMiddleware}},
					{"POST", "/lessons/:lessonId/start", ProgressHandler.HandleStartLesson, []echo.MiddlewareFunc{optionalTokenMiddleware}},
					{"POST", "/lessons/:lessonId/complete", ProgressHandler.HandleCompleteLesson, []echo.MiddlewareFunc{optionalTokenMiddleware}},
				},
			},
			{
				prefix:      "/activity",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware},
				routes: []*route{
					{"GET", "", ActivityHandler.HandleListActivity, nil},
				},
			},
			{
				prefix:      "/ws",
				middlewares: []echo.MiddlewareFunc{jwtMiddleware},
				routes: []*route{
					{"GET", "/progress/:courseId", ProgressFeedHandler.HandleProgressFeed, nil},
				},
			},
			{
				prefix: "/session",
				routes: []*route{
					{"PUT", "/sign-out", SessionHandler.HandleSignOut, nil},
				},
			},
		},
	}
}
