package course

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
)

// CourseAPIRepository reads courses from the upstream REST API
type CourseAPIRepository struct {
	Client *restapi.Client
}

var _ CourseRepository = &CourseAPIRepository{}

// NewCourseAPIRepository .
func NewCourseAPIRepository(client *restapi.Client) *CourseAPIRepository {
	return &CourseAPIRepository{Client: client}
}

// FetchCourse GET /courses/{slug}?detailed=true
func (repo *CourseAPIRepository) FetchCourse(ctx context.Context, slug, token string) (*CourseDetail, error) {
	path := fmt.Sprintf("/courses/%s?detailed=true", url.PathEscape(slug))
	detail := new(CourseDetail)
	if err := repo.Client.Get(ctx, path, token, detail); err != nil {
		if restapi.IsStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("fetch course %q: %w", slug, ErrCourseNotFound)
		}
		return nil, err
	}
	return detail, nil
}
