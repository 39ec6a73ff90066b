package course

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pot-code/learn-gateway/internal/infrastructure/restapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailedCourse = `{
  "has_access": true,
  "course": {
    "id": 7,
    "progression_enabled": true,
    "product_info": {"title": "Go", "slug": "test-course", "price": "49.00", "description": "learn go"},
    "sections": [
      {"id": 1, "title": "Basics", "complete": false, "lessons": [
        {"id": 187, "title": "Hello", "video_url": "https://cdn/v/187.mp4", "complete": true},
        {"id": 188, "title": "Types", "complete": false, "quizzes": [
          {"id": 3, "questions": [{"id": 1, "question": "int?", "options": [{"id": 1, "text": "yes", "is_correct": true}]}]}
        ]}
      ]},
      {"id": 2, "title": "Advanced", "complete": false, "lessons": [
        {"id": 189, "title": "Channels", "complete": false}
      ]}
    ]
  }
}`

func newCourseServer(t *testing.T, status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/courses/test-course", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("detailed"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func newUseCase(url string) *CourseUseCaseImpl {
	return NewCourseUseCase(NewCourseAPIRepository(restapi.NewClient(url, time.Second)))
}

func TestCourseUseCase_GetCourseDetail(t *testing.T) {
	srv := newCourseServer(t, http.StatusOK, detailedCourse)
	defer srv.Close()

	detail, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "tok")
	require.NoError(t, err)
	assert.True(t, detail.HasAccess)

	c := detail.Course
	assert.Equal(t, 7, c.ID)
	assert.True(t, c.ProgressionEnabled)
	assert.Equal(t, "test-course", c.Slug())
	assert.Equal(t, Price("49.00"), c.ProductInfo.Price)
	require.Len(t, c.Sections, 2)
	assert.Equal(t, []int{187, 188}, []int{c.Sections[0].Lessons[0].ID, c.Sections[0].Lessons[1].ID})
	assert.True(t, c.Sections[0].Lessons[0].Complete)
	require.Len(t, c.Sections[0].Lessons[1].Quizzes, 1)
	assert.True(t, c.Sections[0].Lessons[1].Quizzes[0].Questions[0].Options[0].IsCorrect)
}

func TestCourseUseCase_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no sections key", `{"has_access": true, "course": {"id": 7, "progression_enabled": true}}`},
		{"null sections", `{"has_access": true, "course": {"id": 7, "sections": null}}`},
		{"no course", `{"has_access": true}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newCourseServer(t, http.StatusOK, tt.body)
			defer srv.Close()

			_, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "")
			assert.True(t, errors.Is(err, ErrCourseMalformed))
		})
	}
}

func TestCourseUseCase_NoAccessSkipsValidation(t *testing.T) {
	srv := newCourseServer(t, http.StatusOK, `{"has_access": false, "course": {"id": 7}}`)
	defer srv.Close()

	detail, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "")
	require.NoError(t, err)
	assert.False(t, detail.HasAccess)
}

func TestCourseUseCase_EmptySectionsIsNotMalformed(t *testing.T) {
	srv := newCourseServer(t, http.StatusOK, `{"has_access": true, "course": {"id": 7, "sections": []}}`)
	defer srv.Close()

	detail, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "")
	require.NoError(t, err)
	assert.Empty(t, detail.Course.Sections)
}

func TestCourseUseCase_NotFound(t *testing.T) {
	srv := newCourseServer(t, http.StatusNotFound, `{"detail": "Not found."}`)
	defer srv.Close()

	_, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "")
	assert.True(t, errors.Is(err, ErrCourseNotFound))
}

func TestCourseUseCase_UpstreamFailure(t *testing.T) {
	srv := newCourseServer(t, http.StatusInternalServerError, `{"detail": "boom"}`)
	defer srv.Close()

	_, err := newUseCase(srv.URL).GetCourseDetail(context.Background(), "test-course", "")
	apiErr, ok := restapi.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "boom", apiErr.Message)
}

func TestPrice_UnmarshalJSON(t *testing.T) {
	var info ProductInfo
	require.NoError(t, json.Unmarshal([]byte(`{"price": 12.5}`), &info))
	assert.Equal(t, Price("12.5"), info.Price)

	require.NoError(t, json.Unmarshal([]byte(`{"price": null}`), &info))
	assert.Equal(t, Price(""), info.Price)

	assert.Error(t, json.Unmarshal([]byte(`{"price": true}`), &info))
}
