package progress

import (
	"context"
	"errors"

	"github.com/pot-code/learn-gateway/internal/learner"
	"github.com/pot-code/learn-gateway/internal/progression"
)

// ErrProgressUnconfirmed the completion was accepted upstream but the refreshed snapshot could not be fetched
var ErrProgressUnconfirmed = errors.New("lesson completion accepted, progress not confirmed")

// LessonRef .
type LessonRef struct {
	LessonID int `json:"lesson_id"`
}

// SectionRef .
type SectionRef struct {
	SectionID int `json:"section_id"`
}

// QuizRef .
type QuizRef struct {
	QuizID int `json:"quiz_id"`
}

// Snapshot aggregate progress of a learner in one course, as reported upstream
type Snapshot struct {
	Percentage            float64       `json:"percentage"`
	CompletedLessonsCount int           `json:"completed_lessons_count"`
	TotalLessons          int           `json:"total_lessons"`
	CompletedSections     []*SectionRef `json:"completed_sections"`
	CompletedLessons      []*LessonRef  `json:"completed_lessons"`
	CompletedQuizzes      []*QuizRef    `json:"completed_quizzes"`
	CurrentLesson         *LessonRef    `json:"current_lesson"`
}

// Cursor derives the completion cursor
func (s *Snapshot) Cursor() *progression.Cursor {
	cursor := &progression.Cursor{CompletedLessons: make([]int, 0, len(s.CompletedLessons))}
	for _, l := range s.CompletedLessons {
		if l != nil {
			cursor.Complete(l.LessonID)
		}
	}
	if s.CurrentLesson != nil && s.CurrentLesson.LessonID > 0 {
		cursor.SetCurrent(s.CurrentLesson.LessonID)
	}
	return cursor
}

func (s *Snapshot) normalize() {
	if s.CompletedSections == nil {
		s.CompletedSections = []*SectionRef{}
	}
	if s.CompletedLessons == nil {
		s.CompletedLessons = []*LessonRef{}
	}
	if s.CompletedQuizzes == nil {
		s.CompletedQuizzes = []*QuizRef{}
	}
}

// ProgressRepository upstream progress service
type ProgressRepository interface {
	FetchProgress(ctx context.Context, token string, courseID int) (*Snapshot, error)
	StartLesson(ctx context.Context, token string, courseID, lessonID int) error
	CompleteLesson(ctx context.Context, token string, courseID, lessonID int) error
}

// CursorStore cache of the last known cursor per learner and course
type CursorStore interface {
	// GetCursor returns nil without error when nothing is cached
	GetCursor(ctx context.Context, userID string, courseID int) (*progression.Cursor, error)
	SaveCursor(ctx context.Context, userID string, courseID int, cursor *progression.Cursor) error
	DropCursor(ctx context.Context, userID string, courseID int) error
}

// Tracker mutates and caches completion state, anonymous learners get no-ops
type Tracker interface {
	StartLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*progression.Cursor, error)
	CompleteLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*Snapshot, error)
	LoadProgressData(ctx context.Context, l *learner.Learner, courseID int) (*Snapshot, error)
	Cursor(ctx context.Context, l *learner.Learner, courseID int) (*progression.Cursor, error)
}
