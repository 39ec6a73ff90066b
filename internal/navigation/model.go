package navigation

import (
	"context"
	"strconv"
	"strings"

	"github.com/pot-code/learn-gateway/internal/course"
	"github.com/pot-code/learn-gateway/internal/learner"
	"github.com/pot-code/learn-gateway/internal/progress"
	"github.com/pot-code/learn-gateway/internal/progression"
)

// View what the learn page renders
type View string

// views
const (
	ViewGrid   View = "GRID"
	ViewLesson View = "LESSON"
)

// State navigation state of one session in one course
type State struct {
	View              View `json:"view"`
	Navigating        bool `json:"navigating"`
	LessonID          int  `json:"lesson_id,omitempty"`
	SectionID         int  `json:"section_id,omitempty"`
	ManualGridView    bool `json:"manual_grid_view"`
	ExplicitSelection bool `json:"explicit_selection"`
}

// InitialState state of a session that never visited the course
func InitialState() State {
	return State{View: ViewGrid}
}

// LessonParam the lesson query parameter of the learn page url
type LessonParam struct {
	Raw     string
	Present bool
}

// NoLessonParam url without a lesson parameter
var NoLessonParam = LessonParam{}

// NewLessonParam .
func NewLessonParam(raw string, present bool) LessonParam {
	return LessonParam{Raw: strings.TrimSpace(raw), Present: present}
}

// LessonParamOf shorthand for a valid lesson parameter
func LessonParamOf(lessonID int) LessonParam {
	return LessonParam{Raw: strconv.Itoa(lessonID), Present: true}
}

// ID parsed lesson id, ok is false for absent or non-integer values
func (p LessonParam) ID() (int, bool) {
	if !p.Present {
		return 0, false
	}
	id, err := strconv.Atoi(p.Raw)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Action input of the reducer
type Action interface {
	actionName() string
}

// URLChanged page load or url change
type URLChanged struct {
	Param LessonParam
}

// DataLoaded course and cursor were reloaded without a url change
type DataLoaded struct{}

// UserSelectedLesson explicit click on a lesson
type UserSelectedLesson struct {
	LessonID int
}

// UserRequestedGrid explicit "back to grid"
type UserRequestedGrid struct{}

// LessonReady the client finished loading the lesson
type LessonReady struct {
	LessonID int
}

func (URLChanged) actionName() string         { return "url_changed" }
func (DataLoaded) actionName() string         { return "data_loaded" }
func (UserSelectedLesson) actionName() string { return "user_selected_lesson" }
func (UserRequestedGrid) actionName() string  { return "user_requested_grid" }
func (LessonReady) actionName() string        { return "lesson_ready" }

// Effect side effect the client has to perform
type Effect interface {
	effectName() string
}

// Redirect navigate to the lesson url
type Redirect struct {
	LessonID int
	Replace  bool
}

// StripLessonParam drop the lesson parameter from the url
type StripLessonParam struct{}

// NoticeLevel .
type NoticeLevel string

// notice levels
const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice transient message shown to the learner
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

func (Redirect) effectName() string         { return "redirect" }
func (StripLessonParam) effectName() string { return "strip_lesson_param" }
func (Notice) effectName() string           { return "notice" }

// notice messages
const (
	MsgLessonUnavailable = "requested lesson is not available yet"
	MsgLessonLocked      = "lesson is locked"
	MsgLessonUnknown     = "lesson does not exist in this course"
	MsgNoAccess          = "you do not have access to this course"
)

// Env read-only inputs of the reducer
type Env struct {
	Course    *course.Course
	Evaluator *progression.Evaluator
	// Param lesson parameter of the current url, used by DataLoaded
	Param LessonParam
}

// StateStore persists navigation state per session and course
type StateStore interface {
	// Load returns InitialState when nothing is stored
	Load(ctx context.Context, sessionID, slug string) (State, error)
	Save(ctx context.Context, sessionID, slug string, state State) error
}

// DecisionView what the client renders
type DecisionView string

// decision views
const (
	DecisionGrid      DecisionView = "grid"
	DecisionLesson    DecisionView = "lesson"
	DecisionRedirect  DecisionView = "redirect"
	DecisionForbidden DecisionView = "forbidden"
	DecisionNotFound  DecisionView = "not_found"
)

// CatalogURL where learners go when a course can not be shown
const CatalogURL = "/courses"

// Decision render decision of the learn page
type Decision struct {
	View             DecisionView       `json:"view"`
	Course           *course.Course     `json:"course,omitempty"`
	Lesson           *course.Lesson     `json:"lesson,omitempty"`
	Section          *course.Section    `json:"section,omitempty"`
	Location         string             `json:"location,omitempty"`
	Replace          bool               `json:"replace,omitempty"`
	StripLessonParam bool               `json:"strip_lesson_param,omitempty"`
	Notices          []Notice           `json:"notices"`
	UnlockedLessons  []int              `json:"unlocked_lessons"`
	UnlockedSections []int              `json:"unlocked_sections"`
	NextLesson       *course.Lesson     `json:"next_lesson,omitempty"`
	Navigating       bool               `json:"navigating"`
	Progress         *progress.Snapshot `json:"progress,omitempty"`
	CatalogURL       string             `json:"catalog_url,omitempty"`
}

// Request who dispatches an action against which course
type Request struct {
	SessionID string
	Slug      string
	Learner   *learner.Learner
	// Param lesson parameter of the url the client is on
	Param LessonParam
}

// NavigationUseCase .
type NavigationUseCase interface {
	Dispatch(ctx context.Context, req *Request, action Action) (*Decision, error)
}
