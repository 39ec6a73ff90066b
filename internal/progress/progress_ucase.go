package progress

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pot-code/learn-gateway/internal/activity"
	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
	"github.com/pot-code/learn-gateway/internal/learner"
	"github.com/pot-code/learn-gateway/internal/progression"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// TrackerImpl ...
type TrackerImpl struct {
	ProgressRepository ProgressRepository
	CursorStore        CursorStore
	Activity           activity.ActivityUseCase // optional
}

var _ Tracker = &TrackerImpl{}

// NewTracker ...
func NewTracker(
	ProgressRepository ProgressRepository,
	CursorStore CursorStore,
	Activity activity.ActivityUseCase,
) *TrackerImpl {
	return &TrackerImpl{ProgressRepository, CursorStore, Activity}
}

// StartLesson records that the learner began a lesson, the cached current lesson moves only after upstream confirmed
func (tr *TrackerImpl) StartLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*progression.Cursor, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TrackerImpl.StartLesson", "service")
	defer apmSpan.End()

	if !l.Authenticated() {
		return nil, nil
	}
	if err := tr.ProgressRepository.StartLesson(ctx, l.Token, courseID, lessonID); err != nil {
		return nil, err
	}

	cursor := tr.cachedCursor(ctx, l, courseID)
	if cursor == nil {
		cursor = progression.NewCursor(nil, 0)
	}
	cursor.SetCurrent(lessonID)
	tr.saveCursor(ctx, l, courseID, cursor)
	tr.journal(ctx, l, courseID, lessonID, activity.KindStarted)
	return cursor, nil
}

// CompleteLesson records completion, appends the lesson to the cached cursor and reloads the snapshot
func (tr *TrackerImpl) CompleteLesson(ctx context.Context, l *learner.Learner, courseID, lessonID int) (*Snapshot, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TrackerImpl.CompleteLesson", "service")
	defer apmSpan.End()

	if !l.Authenticated() {
		return nil, nil
	}
	if err := tr.ProgressRepository.CompleteLesson(ctx, l.Token, courseID, lessonID); err != nil {
		return nil, err
	}

	cursor := tr.cachedCursor(ctx, l, courseID)
	if cursor == nil {
		cursor = progression.NewCursor(nil, 0)
	}
	cursor.Complete(lessonID)
	tr.saveCursor(ctx, l, courseID, cursor)
	tr.journal(ctx, l, courseID, lessonID, activity.KindCompleted)

	snapshot, err := tr.LoadProgressData(ctx, l, courseID)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("lesson completed but progress reload failed",
			zap.String("user.id", l.ID), zap.Int("course.id", courseID), zap.Int("lesson.id", lessonID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProgressUnconfirmed, err)
	}
	return snapshot, nil
}

// LoadProgressData fetches the snapshot and overwrites the cached cursor, safe to call repeatedly
func (tr *TrackerImpl) LoadProgressData(ctx context.Context, l *learner.Learner, courseID int) (*Snapshot, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TrackerImpl.LoadProgressData", "service")
	defer apmSpan.End()

	if !l.Authenticated() {
		return nil, nil
	}
	snapshot, err := tr.ProgressRepository.FetchProgress(ctx, l.Token, courseID)
	if err != nil {
		if revoked(err) {
			tr.dropCursor(ctx, l, courseID)
		}
		return nil, err
	}
	tr.saveCursor(ctx, l, courseID, snapshot.Cursor())
	return snapshot, nil
}

// Cursor cached cursor, loaded from upstream on a cache miss
func (tr *TrackerImpl) Cursor(ctx context.Context, l *learner.Learner, courseID int) (*progression.Cursor, error) {
	apmSpan, _ := apm.StartSpan(ctx, "TrackerImpl.Cursor", "service")
	defer apmSpan.End()

	if !l.Authenticated() {
		return nil, nil
	}
	if cursor := tr.cachedCursor(ctx, l, courseID); cursor != nil {
		return cursor, nil
	}
	snapshot, err := tr.LoadProgressData(ctx, l, courseID)
	if err != nil {
		return nil, err
	}
	return snapshot.Cursor(), nil
}

// cachedCursor cache errors degrade to a miss
func (tr *TrackerImpl) cachedCursor(ctx context.Context, l *learner.Learner, courseID int) *progression.Cursor {
	cursor, err := tr.CursorStore.GetCursor(ctx, l.ID, courseID)
	if err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("failed to read cached cursor",
			zap.String("user.id", l.ID), zap.Int("course.id", courseID), zap.Error(err))
		return nil
	}
	return cursor
}

func (tr *TrackerImpl) saveCursor(ctx context.Context, l *learner.Learner, courseID int, cursor *progression.Cursor) {
	if err := tr.CursorStore.SaveCursor(ctx, l.ID, courseID, cursor); err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("failed to cache cursor",
			zap.String("user.id", l.ID), zap.Int("course.id", courseID), zap.Error(err))
	}
}

func (tr *TrackerImpl) dropCursor(ctx context.Context, l *learner.Learner, courseID int) {
	if err := tr.CursorStore.DropCursor(ctx, l.ID, courseID); err != nil {
		logging.ExtractLoggerFromContext(ctx).Warn("failed to drop cached cursor",
			zap.String("user.id", l.ID), zap.Int("course.id", courseID), zap.Error(err))
	}
}

// revoked upstream no longer serves this learner's progress, the cached cursor is stale
func revoked(err error) bool {
	return restapi.IsStatus(err, http.StatusUnauthorized) ||
		restapi.IsStatus(err, http.StatusForbidden) ||
		restapi.IsStatus(err, http.StatusNotFound)
}

// journal never fails the mutation
func (tr *TrackerImpl) journal(ctx context.Context, l *learner.Learner, courseID, lessonID int, kind activity.Kind) {
	if tr.Activity == nil {
		return
	}
	if _, err := tr.Activity.Record(ctx, l.ID, courseID, lessonID, kind); err != nil {
		logging.ExtractLoggerFromContext(ctx).Error("failed to journal lesson activity",
			zap.String("user.id", l.ID), zap.Int("course.id", courseID),
			zap.Int("lesson.id", lessonID), zap.String("activity.kind", string(kind)), zap.Error(err))
	}
}
