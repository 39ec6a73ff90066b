package progress

import (
	"context"
	"fmt"

	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
)

// ProgressAPIRepository talks to the upstream progress endpoints
type ProgressAPIRepository struct {
	Client *restapi.Client
}

var _ ProgressRepository = &ProgressAPIRepository{}

// NewProgressAPIRepository .
func NewProgressAPIRepository(client *restapi.Client) *ProgressAPIRepository {
	return &ProgressAPIRepository{Client: client}
}

type lessonMutation struct {
	CourseID int `json:"course_id"`
}

// FetchProgress GET /progress/course/{courseId}, a null progress is zero progress
func (repo *ProgressAPIRepository) FetchProgress(ctx context.Context, token string, courseID int) (*Snapshot, error) {
	var body struct {
		Progress *Snapshot `json:"progress"`
	}
	if err := repo.Client.Get(ctx, fmt.Sprintf("/progress/course/%d", courseID), token, &body); err != nil {
		return nil, err
	}
	if body.Progress == nil {
		body.Progress = new(Snapshot)
	}
	body.Progress.normalize()
	return body.Progress, nil
}

// StartLesson POST /progress/lesson/{lessonId}/start
func (repo *ProgressAPIRepository) StartLesson(ctx context.Context, token string, courseID, lessonID int) error {
	return repo.Client.Post(ctx, fmt.Sprintf("/progress/lesson/%d/start", lessonID), token, &lessonMutation{courseID}, nil)
}

// CompleteLesson POST /progress/lesson/{lessonId}/complete
func (repo *ProgressAPIRepository) CompleteLesson(ctx context.Context, token string, courseID, lessonID int) error {
	return repo.Client.Post(ctx, fmt.Sprintf("/progress/lesson/%d/complete", lessonID), token, &lessonMutation{courseID}, nil)
}
