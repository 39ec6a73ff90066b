package activity

import (
	"context"
	"time"
)

// Kind what happened to the lesson
type Kind string

// activity kinds
const (
	KindStarted   Kind = "started"
	KindCompleted Kind = "completed"
)

// list bounds of ListRecent
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Activity one journaled lesson event
type Activity struct {
	ID        string     `json:"id"`
	UserID    string     `json:"-"`
	CourseID  int        `json:"course_id"`
	LessonID  int        `json:"lesson_id"`
	Kind      Kind       `json:"kind"`
	CreatedAt *time.Time `json:"-"`
	Timestamp int64      `json:"timestamp"`
}

// ActivityRepository .
type ActivityRepository interface {
	InsertActivity(ctx context.Context, activity *Activity) error
	ListActivityByUser(ctx context.Context, userID string, limit int) ([]*Activity, error)
}

// ActivityUseCase .
type ActivityUseCase interface {
	Record(ctx context.Context, userID string, courseID, lessonID int, kind Kind) (*Activity, error)
	ListRecent(ctx context.Context, userID string, limit int) ([]*Activity, error)
}
