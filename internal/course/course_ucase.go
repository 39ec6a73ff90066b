package course

import (
	"context"
	"fmt"

	"go.elastic.co/apm"
)

// CourseUseCaseImpl ...
type CourseUseCaseImpl struct {
	CourseRepository CourseRepository
}

var _ CourseUseCase = &CourseUseCaseImpl{}

// NewCourseUseCase ...
func NewCourseUseCase(CourseRepository CourseRepository) *CourseUseCaseImpl {
	return &CourseUseCaseImpl{CourseRepository}
}

// GetCourseDetail fetches a fresh course tree, every call goes upstream.
// A course the learner can access must carry a sections list.
func (cu *CourseUseCaseImpl) GetCourseDetail(ctx context.Context, slug, token string) (*CourseDetail, error) {
	apmSpan, _ := apm.StartSpan(ctx, "CourseUseCaseImpl.GetCourseDetail", "service")
	defer apmSpan.End()

	detail, err := cu.CourseRepository.FetchCourse(ctx, slug, token)
	if err != nil {
		return nil, err
	}
	// learners without access may receive a stripped tree, the caller redirects them anyway
	if !detail.HasAccess {
		return detail, nil
	}
	if detail.Course == nil || detail.Course.Sections == nil {
		return nil, fmt.Errorf("course %q: %w", slug, ErrCourseMalformed)
	}
	return detail, nil
}
