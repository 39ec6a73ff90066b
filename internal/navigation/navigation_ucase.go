package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/pot-code/learn-gateway/internal/course"
	"github.com/pot-code/learn-gateway/internal/infrastructure/logging"
	"github.com/pot-code/learn-gateway/internal/learner"
	"github.com/pot-code/learn-gateway/internal/progress"
	"github.com/pot-code/learn-gateway/internal/progression"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// ControllerImpl loads fresh data, runs the reducer and persists the session state
type ControllerImpl struct {
	CourseUseCase course.CourseUseCase
	Tracker       progress.Tracker
	StateStore    StateStore
	SectionPolicy progression.SectionPolicy
}

var _ NavigationUseCase = &ControllerImpl{}

// NewController ...
func NewController(
	CourseUseCase course.CourseUseCase,
	Tracker progress.Tracker,
	StateStore StateStore,
	SectionPolicy progression.SectionPolicy,
) *ControllerImpl {
	return &ControllerImpl{CourseUseCase, Tracker, StateStore, SectionPolicy}
}

// Dispatch runs action for the session, upstream failures are returned as errors,
// missing or inaccessible courses become decisions
func (nc *ControllerImpl) Dispatch(ctx context.Context, req *Request, action Action) (*Decision, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ControllerImpl.Dispatch", "service")
	defer apmSpan.End()

	logger := logging.ExtractLoggerFromContext(ctx)
	l := req.Learner
	if l == nil {
		l = learner.Anonymous()
	}

	detail, err := nc.CourseUseCase.GetCourseDetail(ctx, req.Slug, l.Token)
	if errors.Is(err, course.ErrCourseNotFound) || errors.Is(err, course.ErrCourseMalformed) {
		return &Decision{View: DecisionNotFound, CatalogURL: CatalogURL, Notices: []Notice{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if !detail.HasAccess {
		return &Decision{
			View:     DecisionForbidden,
			Location: CoursePath(req.Slug),
			Replace:  true,
			Notices:  []Notice{{Level: NoticeError, Message: MsgNoAccess}},
		}, nil
	}

	c := detail.Course
	var snapshot *progress.Snapshot
	var cursor *progression.Cursor
	switch action.(type) {
	case URLChanged, DataLoaded:
		snapshot, err = nc.Tracker.LoadProgressData(ctx, l, c.ID)
		if snapshot != nil {
			cursor = snapshot.Cursor()
		}
	default:
		cursor, err = nc.Tracker.Cursor(ctx, l, c.ID)
	}
	if err != nil {
		return nil, err
	}

	state, err := nc.StateStore.Load(ctx, req.SessionID, req.Slug)
	if err != nil {
		logger.Warn("failed to load navigation state, starting over",
			zap.String("session.id", req.SessionID), zap.Error(err))
		state = InitialState()
	}

	ev := progression.NewEvaluator(c, cursor, nc.SectionPolicy)
	env := &Env{Course: c, Evaluator: ev, Param: req.Param}
	next, effects := Reduce(state, action, env)
	logger.Debug("navigation reduced",
		zap.String("navigation.action", action.actionName()),
		zap.String("navigation.from", string(state.View)),
		zap.String("navigation.to", string(next.View)),
		zap.Int("navigation.effects", len(effects)))

	if err := nc.StateStore.Save(ctx, req.SessionID, req.Slug, next); err != nil {
		return nil, fmt.Errorf("save navigation state: %w", err)
	}
	return buildDecision(req.Slug, c, ev, next, effects, snapshot), nil
}

func buildDecision(
	slug string,
	c *course.Course,
	ev *progression.Evaluator,
	state State,
	effects []Effect,
	snapshot *progress.Snapshot,
) *Decision {
	d := &Decision{
		Course:           c,
		Notices:          []Notice{},
		UnlockedLessons:  ev.UnlockedLessons(),
		UnlockedSections: ev.UnlockedSections(),
		NextLesson:       ev.NextLesson(),
		Navigating:       state.Navigating,
		Progress:         snapshot,
	}
	switch state.View {
	case ViewLesson:
		d.View = DecisionLesson
		d.Lesson, d.Section, _ = progression.FindLesson(c, state.LessonID)
	default:
		d.View = DecisionGrid
	}

	for _, e := range effects {
		switch effect := e.(type) {
		case Redirect:
			d.View = DecisionRedirect
			d.Location = LessonPath(slug, effect.LessonID)
			d.Replace = effect.Replace
			d.Lesson, d.Section, _ = progression.FindLesson(c, effect.LessonID)
		case StripLessonParam:
			d.StripLessonParam = true
			d.Location = LearnPath(slug)
			d.Replace = true
		case Notice:
			d.Notices = append(d.Notices, effect)
		}
	}
	return d
}

// CoursePath detail page of the course
func CoursePath(slug string) string {
	return "/course/" + url.PathEscape(slug)
}

// LearnPath learn page without a lesson
func LearnPath(slug string) string {
	return CoursePath(slug) + "/learn"
}

// LessonPath learn page showing the lesson
func LessonPath(slug string, lessonID int) string {
	return LearnPath(slug) + "?lesson=" + strconv.Itoa(lessonID)
}
