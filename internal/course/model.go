package course

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
)

var (
	// ErrCourseNotFound upstream has no course with the requested slug
	ErrCourseNotFound = errors.New("course not found")
	// ErrCourseMalformed course payload carries no sections
	ErrCourseMalformed = errors.New("course has no sections")
)

// Option answer option of a quiz question
type Option struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question quiz question
type Question struct {
	ID      int       `json:"id"`
	Text    string    `json:"question"`
	Options []*Option `json:"options"`
}

// Quiz display-only quiz attached to a lesson
type Quiz struct {
	ID        int         `json:"id"`
	Title     string      `json:"title,omitempty"`
	Questions []*Question `json:"questions"`
}

// Lesson leaf of the course tree
type Lesson struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	VideoURL string  `json:"video_url,omitempty"`
	Quizzes  []*Quiz `json:"quizzes,omitempty"`
	Complete bool    `json:"complete"`
}

// Section ordered group of lessons
type Section struct {
	ID       int       `json:"id"`
	Title    string    `json:"title"`
	Lessons  []*Lesson `json:"lessons"`
	Complete bool      `json:"complete"`
}

// Price decimal price, upstream sends it either as a string or a number
type Price string

// UnmarshalJSON accepts "49.00", 49 and null
func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = Price(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Price(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// ProductInfo denormalized catalog data of the course
type ProductInfo struct {
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Price       Price  `json:"price"`
	Description string `json:"description"`
}

// Course root of the course tree
type Course struct {
	ID                 int          `json:"id"`
	ProgressionEnabled bool         `json:"progression_enabled"`
	Sections           []*Section   `json:"sections"`
	ProductInfo        *ProductInfo `json:"product_info,omitempty"`
}

// Slug catalog slug of the course, empty if no product info was sent
func (c *Course) Slug() string {
	if c.ProductInfo == nil {
		return ""
	}
	return c.ProductInfo.Slug
}

// CourseDetail response of the detailed course endpoint
type CourseDetail struct {
	Course    *Course `json:"course"`
	HasAccess bool    `json:"has_access"`
}

// CourseRepository course source
type CourseRepository interface {
	// FetchCourse retrieves the full tree, token may be empty for anonymous learners
	FetchCourse(ctx context.Context, slug, token string) (*CourseDetail, error)
}

// CourseUseCase .
type CourseUseCase interface {
	GetCourseDetail(ctx context.Context, slug, token string) (*CourseDetail, error)
}
