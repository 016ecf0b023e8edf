// Package mode implements the game-mode plugin system. Each mode bundles
// configuration, a pure state reducer, lifecycle hooks, a scoring formula,
// and data-only view callbacks behind one Plugin interface so the host
// quiz engine can drive any mode polymorphically.
package mode

import (
	"context"

	"civicquiz-service/internal/domain"
)

// State is the mode-private session state. Each mode defines its own
// concrete struct; the engine only threads it through the reducer and the
// view callbacks. Reducers must return a new value and never mutate the
// previous one, so the engine can diff and replay states.
type State interface {
	ModeID() ID
}

// Hooks are the fixed lifecycle callback points the host engine invokes.
// Every hook is optional; a nil entry is a no-op. Hook errors propagate to
// the engine, which decides whether to surface or log them.
type Hooks struct {
	// OnModeStart runs once when a session begins.
	OnModeStart func(ctx context.Context, mc *Context) error

	// OnQuestionStart runs before each question is presented.
	OnQuestionStart func(ctx context.Context, q domain.Question, index int, mc *Context) error

	// OnAnswerSubmit runs synchronously with a submission and may veto it
	// by returning false.
	OnAnswerSubmit func(ctx context.Context, answer domain.AnswerRecord, mc *Context) (bool, error)

	// OnQuestionComplete runs after a single question is scored.
	OnQuestionComplete func(ctx context.Context, q domain.Question, answer domain.AnswerRecord, mc *Context) error

	// OnModeComplete runs once at session end with the aggregated results.
	OnModeComplete func(ctx context.Context, results Results, mc *Context) error
}

// Badge is one label/value pair in a mode header.
type Badge struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HeaderData is the renderable header fragment, expressed as pure data so
// each client platform renders it independently.
type HeaderData struct {
	Title    string  `json:"title"`
	Subtitle string  `json:"subtitle,omitempty"`
	Badges   []Badge `json:"badges,omitempty"`
}

// InterfaceData is the renderable question-interface fragment.
type InterfaceData struct {
	ShowHint        bool   `json:"showHint"`
	Hint            string `json:"hint,omitempty"`
	ShowExplanation bool   `json:"showExplanation"`
	AllowSkip       bool   `json:"allowSkip"`
	Notice          string `json:"notice,omitempty"`
}

// Plugin is the uniform capability set every mode exposes to the engine.
type Plugin interface {
	Config() Config
	InitialState() State
	Reduce(state State, action Action) State
	Hooks() Hooks
	CalculateScore(answers []domain.AnswerRecord, questions []domain.Question) int
	HeaderData(mc *Context) HeaderData
	InterfaceData(mc *Context) InterfaceData
	AnalyticsData(mc *Context) map[string]any
	ProgressData(mc *Context) map[string]any
}

// Descriptor declaratively assembles a mode. Nil entries fall back to
// sensible defaults: identity reducer, accuracy-only scoring, empty view
// data.
type Descriptor struct {
	Config       Config
	InitialState func() State
	Reduce       func(state State, action Action) State
	Hooks        Hooks
	Score        func(answers []domain.AnswerRecord, questions []domain.Question) int
	Header       func(mc *Context) HeaderData
	Interface    func(mc *Context) InterfaceData
	Analytics    func(mc *Context) map[string]any
	Progress     func(mc *Context) map[string]any
}

// New builds a Plugin from a descriptor.
func New(d Descriptor) Plugin {
	return &plugin{d: d}
}

type plugin struct {
	d Descriptor
}

func (p *plugin) Config() Config {
	return p.d.Config
}

func (p *plugin) InitialState() State {
	if p.d.InitialState == nil {
		return nil
	}
	return p.d.InitialState()
}

func (p *plugin) Reduce(state State, action Action) State {
	if p.d.Reduce == nil {
		return state
	}
	return p.d.Reduce(state, action)
}

func (p *plugin) Hooks() Hooks {
	return p.d.Hooks
}

func (p *plugin) CalculateScore(answers []domain.AnswerRecord, questions []domain.Question) int {
	if p.d.Score == nil {
		return ClampScore(BaseScore(answers, questions), 0)
	}
	return p.d.Score(answers, questions)
}

func (p *plugin) HeaderData(mc *Context) HeaderData {
	if p.d.Header == nil {
		return HeaderData{Title: p.d.Config.DisplayName}
	}
	return p.d.Header(mc)
}

func (p *plugin) InterfaceData(mc *Context) InterfaceData {
	if p.d.Interface == nil {
		s := p.d.Config.Settings
		return InterfaceData{ShowHint: s.ShowHints, ShowExplanation: s.ShowExplanations, AllowSkip: s.AllowSkip}
	}
	return p.d.Interface(mc)
}

func (p *plugin) AnalyticsData(mc *Context) map[string]any {
	if p.d.Analytics == nil {
		return map[string]any{}
	}
	return p.d.Analytics(mc)
}

func (p *plugin) ProgressData(mc *Context) map[string]any {
	if p.d.Progress == nil {
		return map[string]any{}
	}
	return p.d.Progress(mc)
}
