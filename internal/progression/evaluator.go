// Package progression decides which lessons of a course a learner may open.
//
// Everything here is a pure function of the course tree and the learner's cursor.
package progression

import (
	"fmt"

	"github.com/pot-code/learn-gateway/internal/course"
)

// SectionPolicy rule deciding when a section counts as accessible
type SectionPolicy string

const (
	// SectionPolicyAny a section is open once any of its lessons is
	SectionPolicyAny SectionPolicy = "any"
	// SectionPolicyFirst a section is open once its first lesson is
	SectionPolicyFirst SectionPolicy = "first"
)

// ParseSectionPolicy empty string yields SectionPolicyAny
func ParseSectionPolicy(s string) (SectionPolicy, error) {
	switch SectionPolicy(s) {
	case "", SectionPolicyAny:
		return SectionPolicyAny, nil
	case SectionPolicyFirst:
		return SectionPolicyFirst, nil
	}
	return "", fmt.Errorf("unknown section policy: %s", s)
}

// Flatten lessons in section order, then lesson order
func Flatten(c *course.Course) []*course.Lesson {
	if c == nil {
		return nil
	}
	var lessons []*course.Lesson
	for _, s := range c.Sections {
		lessons = append(lessons, s.Lessons...)
	}
	return lessons
}

// FindLesson searches the whole tree, ok is false if no lesson has that id
func FindLesson(c *course.Course, lessonID int) (lesson *course.Lesson, section *course.Section, ok bool) {
	if c == nil {
		return nil, nil, false
	}
	for _, s := range c.Sections {
		for _, l := range s.Lessons {
			if l.ID == lessonID {
				return l, s, true
			}
		}
	}
	return nil, nil, false
}

// Evaluator answers accessibility questions for one course and cursor
type Evaluator struct {
	course    *course.Course
	cursor    *Cursor
	enabled   bool
	policy    SectionPolicy
	order     []*course.Lesson
	positions map[int]int
	completed map[int]bool
}

// NewEvaluator cursor may be nil for learners without progress
func NewEvaluator(c *course.Course, cursor *Cursor, policy SectionPolicy) *Evaluator {
	if policy == "" {
		policy = SectionPolicyAny
	}
	e := &Evaluator{
		course:    c,
		cursor:    cursor,
		policy:    policy,
		order:     Flatten(c),
		positions: make(map[int]int),
		completed: make(map[int]bool),
	}
	if c != nil {
		e.enabled = c.ProgressionEnabled
	}
	for i, l := range e.order {
		if _, dup := e.positions[l.ID]; !dup {
			e.positions[l.ID] = i
		}
		if l.Complete {
			e.completed[l.ID] = true
		}
	}
	if cursor != nil {
		for _, id := range cursor.CompletedLessons {
			e.completed[id] = true
		}
	}
	return e
}

// ProgressionEnabled .
func (e *Evaluator) ProgressionEnabled() bool {
	return e.enabled
}

// IsCompleted lesson is in the cursor or flagged complete by the server
func (e *Evaluator) IsCompleted(lessonID int) bool {
	return e.completed[lessonID]
}

// IsLessonAccessible .
func (e *Evaluator) IsLessonAccessible(lessonID int) bool {
	if !e.enabled || e.completed[lessonID] {
		return true
	}

	current, ok := e.cursor.Current()
	if ok && current == lessonID {
		return true
	}
	if !ok {
		first := e.firstLesson()
		return first != nil && first.ID == lessonID
	}

	lessonPos, found := e.positions[lessonID]
	if !found {
		return false
	}
	currentPos, found := e.positions[current]
	if !found {
		return false
	}
	return lessonPos <= currentPos+1
}

// IsSectionAccessible unknown sections are never accessible
func (e *Evaluator) IsSectionAccessible(sectionID int) bool {
	section := e.section(sectionID)
	if section == nil {
		return false
	}
	if !e.enabled {
		return true
	}
	if len(section.Lessons) == 0 {
		return false
	}
	if e.policy == SectionPolicyFirst {
		return e.IsLessonAccessible(section.Lessons[0].ID)
	}
	for _, l := range section.Lessons {
		if e.IsLessonAccessible(l.ID) {
			return true
		}
	}
	return false
}

// UnlockedLessons accessible lesson ids in flattened order
func (e *Evaluator) UnlockedLessons() []int {
	ids := make([]int, 0, len(e.order))
	for _, l := range e.order {
		if e.IsLessonAccessible(l.ID) {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// UnlockedSections accessible section ids in course order
func (e *Evaluator) UnlockedSections() []int {
	ids := make([]int, 0)
	if e.course == nil {
		return ids
	}
	for _, s := range e.course.Sections {
		if e.IsSectionAccessible(s.ID) {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// NextLesson first accessible lesson that is not completed, nil when there is none
func (e *Evaluator) NextLesson() *course.Lesson {
	for _, l := range e.order {
		if !e.completed[l.ID] && e.IsLessonAccessible(l.ID) {
			return l
		}
	}
	return nil
}

func (e *Evaluator) firstLesson() *course.Lesson {
	if e.course == nil || len(e.course.Sections) == 0 {
		return nil
	}
	lessons := e.course.Sections[0].Lessons
	if len(lessons) == 0 {
		return nil
	}
	return lessons[0]
}

func (e *Evaluator) section(sectionID int) *course.Section {
	if e.course == nil {
		return nil
	}
	for _, s := range e.course.Sections {
		if s.ID == sectionID {
			return s
		}
	}
	return nil
}
