// Package navigation reconciles the learn page url, unlock state and learner intent
// into a render decision.
//
// All transitions go through Reduce. The one-shot suppressions of the auto redirect
// (manual grid view, explicit selection) live in State and are consumed there.
package navigation

import (
	"github.com/pot-code/learn-gateway/internal/progression"
)

// Reduce applies action to state, it has no side effects
func Reduce(state State, action Action, env *Env) (State, []Effect) {
	switch a := action.(type) {
	case URLChanged:
		return reconcile(state, a.Param, env)
	case DataLoaded:
		return reconcile(state, env.Param, env)
	case UserSelectedLesson:
		return selectLesson(state, a.LessonID, env)
	case UserRequestedGrid:
		return State{View: ViewGrid, ManualGridView: true}, []Effect{StripLessonParam{}}
	case LessonReady:
		if state.View == ViewLesson && state.LessonID == a.LessonID {
			state.Navigating = false
		}
		return state, nil
	}
	return state, nil
}

func reconcile(state State, param LessonParam, env *Env) (State, []Effect) {
	explicit := state.ExplicitSelection
	manualGrid := state.ManualGridView
	state.ExplicitSelection = false
	state.ManualGridView = false

	ev := env.Evaluator
	next := ev.NextLesson()

	if param.Present {
		if id, ok := param.ID(); ok {
			if lesson, section, found := progression.FindLesson(env.Course, id); found {
				if permitted(ev, id) || explicit {
					return enterLesson(state, lesson.ID, section.ID), nil
				}
				if next != nil {
					state.Navigating = true
					return state, []Effect{
						Redirect{LessonID: next.ID, Replace: true},
						Notice{Level: NoticeWarning, Message: MsgLessonUnavailable},
					}
				}
			}
		}
		return toGrid(state), []Effect{StripLessonParam{}}
	}

	if ev.ProgressionEnabled() && next != nil && !manualGrid && !explicit {
		state.Navigating = true
		return state, []Effect{Redirect{LessonID: next.ID, Replace: true}}
	}
	return toGrid(state), nil
}

func selectLesson(state State, lessonID int, env *Env) (State, []Effect) {
	lesson, section, found := progression.FindLesson(env.Course, lessonID)
	if !found {
		state.Navigating = false
		return state, []Effect{Notice{Level: NoticeWarning, Message: MsgLessonUnknown}}
	}
	if !permitted(env.Evaluator, lessonID) {
		state.Navigating = false
		return state, []Effect{Notice{Level: NoticeWarning, Message: MsgLessonLocked}}
	}

	state = enterLesson(state, lesson.ID, section.ID)
	state.Navigating = true
	state.ExplicitSelection = true
	state.ManualGridView = false
	return state, []Effect{Redirect{LessonID: lesson.ID, Replace: true}}
}

func permitted(ev *progression.Evaluator, lessonID int) bool {
	return !ev.ProgressionEnabled() || ev.IsLessonAccessible(lessonID) || ev.IsCompleted(lessonID)
}

// enterLesson a new lesson starts navigating until the client reports it ready
func enterLesson(state State, lessonID, sectionID int) State {
	if state.View != ViewLesson || state.LessonID != lessonID {
		state.Navigating = true
	}
	state.View = ViewLesson
	state.LessonID = lessonID
	state.SectionID = sectionID
	return state
}

func toGrid(state State) State {
	state.View = ViewGrid
	state.LessonID = 0
	state.SectionID = 0
	state.Navigating = false
	return state
}
