package mode

import (
	"time"

	"civicquiz-service/internal/domain"
)

// Severity classifies toast notifications shown to participants.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Actions is the side-effect surface the host engine hands to lifecycle
// hooks. Reducers never see it; all I/O stays in hooks.
type Actions interface {
	// ShowToast sends a transient notification to session subscribers.
	ShowToast(message string, severity Severity)

	// UpdateModeState swaps the mode-private state outside the reducer
	// path. The supplied function must treat its input as immutable.
	UpdateModeState(apply func(State) State)

	// UpdateGameMetadata merges the patch into the session metadata tags.
	UpdateGameMetadata(patch map[string]string)
}

// Context is the read-only view of the host engine passed to hooks and
// view-data callbacks.
type Context struct {
	QuizID               string
	Questions            []domain.Question
	CurrentQuestionIndex int
	ModeState            State
	Settings             Settings
	TimeRemaining        time.Duration
	Score                int
	UserID               string
	GameMetadata         map[string]string
	Actions              Actions
}

// CurrentQuestion returns the active question, or false past the end.
func (c *Context) CurrentQuestion() (domain.Question, bool) {
	if c.CurrentQuestionIndex < 0 || c.CurrentQuestionIndex >= len(c.Questions) {
		return domain.Question{}, false
	}
	return c.Questions[c.CurrentQuestionIndex], true
}

// Results aggregates a finished run for OnModeComplete.
type Results struct {
	Answers  []domain.AnswerRecord
	Score    int
	Duration time.Duration
}

// CorrectCount returns how many recorded answers were correct.
func (r Results) CorrectCount() int {
	n := 0
	for _, a := range r.Answers {
		if a.Correct {
			n++
		}
	}
	return n
}
