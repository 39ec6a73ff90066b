package progression

// Cursor completion state of one learner in one course, nil means no progress record yet
type Cursor struct {
	CompletedLessons []int `json:"completed_lessons"`
	CurrentLessonID  *int  `json:"current_lesson_id,omitempty"`
}

// NewCursor builds a cursor, current <= 0 means no current lesson
func NewCursor(completed []int, current int) *Cursor {
	c := &Cursor{CompletedLessons: append([]int{}, completed...)}
	if current > 0 {
		c.SetCurrent(current)
	}
	return c
}

// IsCompleted .
func (c *Cursor) IsCompleted(lessonID int) bool {
	if c == nil {
		return false
	}
	for _, id := range c.CompletedLessons {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Complete appends lessonID unless it is already there
func (c *Cursor) Complete(lessonID int) {
	if !c.IsCompleted(lessonID) {
		c.CompletedLessons = append(c.CompletedLessons, lessonID)
	}
}

// SetCurrent .
func (c *Cursor) SetCurrent(lessonID int) {
	id := lessonID
	c.CurrentLessonID = &id
}

// Current returns the current lesson, ok is false for new learners
func (c *Cursor) Current() (id int, ok bool) {
	if c == nil || c.CurrentLessonID == nil {
		return 0, false
	}
	return *c.CurrentLessonID, true
}
