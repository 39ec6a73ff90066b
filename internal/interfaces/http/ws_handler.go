package http

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	infra "github.com/pot-code/learn-gateway/internal/infrastructure"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
	"github.com/pot-code/learn-gateway/internal/progress"
	"go.uber.org/zap"
)

// ProgressFeedHandler pushes progress snapshots over a websocket
type ProgressFeedHandler struct {
	tracker   progress.Tracker
	jwtUtil   *auth.JWTUtil
	websocket *infra.Websocket
}

// NewProgressFeedHandler .
func NewProgressFeedHandler(Tracker progress.Tracker, JWTUtil *auth.JWTUtil, Websocket *infra.Websocket) *ProgressFeedHandler {
	return &ProgressFeedHandler{Tracker, JWTUtil, Websocket}
}

type feedMessage struct {
	Progress *progress.Snapshot `json:"progress,omitempty"`
	Error    *RESTUpstreamError `json:"error,omitempty"`
}

// HandleProgressFeed GET /ws/progress/:courseId, every text frame from the client asks for a fresh snapshot
func (fh *ProgressFeedHandler) HandleProgressFeed(c echo.Context) error {
	courseID, ok := pathID(c, "courseId")
	if !ok {
		return badRequest(c, "Failed to validate params", nil)
	}
	learner := fh.jwtUtil.GetContextLearner(c)

	return fh.websocket.WithHeartbeat(func(ctx context.Context, conn *websocket.Conn) error {
		kind, _, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if kind != websocket.TextMessage {
			return nil
		}

		msg := new(feedMessage)
		snapshot, err := fh.tracker.LoadProgressData(ctx, learner, courseID)
		if apiErr, ok := restapi.AsAPIError(err); ok {
			msg.Error = &RESTUpstreamError{Message: apiErr.Message, Status: apiErr.Status, Retryable: apiErr.Retryable()}
		} else if err != nil {
			logging.ExtractLoggerFromContext(ctx).Error("progress feed failed", zap.Int("course.id", courseID), zap.Error(err))
			return err
		} else {
			msg.Progress = snapshot
		}

		conn.SetWriteDeadline(time.Now().Add(fh.websocket.WriteWait()))
		return conn.WriteJSON(msg)
	})(c)
}
