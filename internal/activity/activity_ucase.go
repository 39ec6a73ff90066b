package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/uuid"
	"go.elastic.co/apm"
)

// ActivityUseCaseImpl ...
type ActivityUseCaseImpl struct {
	ActivityRepository ActivityRepository
	IDGenerator        uuid.Generator
	now                func() time.Time
}

var _ ActivityUseCase = &ActivityUseCaseImpl{}

// NewActivityUseCase ...
func NewActivityUseCase(
	ActivityRepository ActivityRepository,
	IDGenerator uuid.Generator,
) *ActivityUseCaseImpl {
	return &ActivityUseCaseImpl{ActivityRepository, IDGenerator, time.Now}
}

// Record journals a lesson event of an authenticated learner
func (au *ActivityUseCaseImpl) Record(ctx context.Context, userID string, courseID, lessonID int, kind Kind) (*Activity, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ActivityUseCaseImpl.Record", "service")
	defer apmSpan.End()

	if userID == "" {
		return nil, fmt.Errorf("record activity: empty user id")
	}
	id, err := au.IDGenerator.Generate()
	if err != nil {
		return nil, err
	}
	now := au.now().UTC()
	activity := &Activity{
		ID:        id,
		UserID:    userID,
		CourseID:  courseID,
		LessonID:  lessonID,
		Kind:      kind,
		CreatedAt: &now,
		Timestamp: now.UnixNano() / 1e6, // milliseconds
	}
	if err := au.ActivityRepository.InsertActivity(ctx, activity); err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return activity, nil
}

// ListRecent newest activities of the user, limit is clamped into [1, MaxLimit]
func (au *ActivityUseCaseImpl) ListRecent(ctx context.Context, userID string, limit int) ([]*Activity, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ActivityUseCaseImpl.ListRecent", "service")
	defer apmSpan.End()

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	activities, err := au.ActivityRepository.ListActivityByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if activities == nil {
		activities = []*Activity{}
	}
	for _, e := range activities {
		if e.CreatedAt != nil {
			e.Timestamp = e.CreatedAt.UnixNano() / 1e6 // milliseconds
		}
	}
	return activities, nil
}
