package mode

import (
	"context"
	"fmt"

	"civicquiz-service/internal/domain"
)

// ClassicState tracks solo progress through an untimed quiz.
type ClassicState struct {
	QuestionsAnswered int
	CorrectAnswers    int
}

func (ClassicState) ModeID() ID { return ModeClassic }

// NewClassic builds the default solo mode: untimed, hints and explanations
// visible, skipping allowed, accuracy-only scoring.
func NewClassic() Plugin {
	cfg := Config{
		ID:          ModeClassic,
		DisplayName: "Classic Quiz",
		Description: "Learn at your own pace with hints and explanations.",
		Category:    CategorySolo,
		Settings: Settings{
			ShowHints:        true,
			ShowExplanations: true,
			AllowSkip:        true,
		},
	}

	return New(Descriptor{
		Config:       cfg,
		InitialState: func() State { return ClassicState{} },
		Reduce:       reduceClassic,
		Hooks: Hooks{
			OnModeStart: func(_ context.Context, mc *Context) error {
				mc.Actions.UpdateGameMetadata(map[string]string{"mode": string(ModeClassic)})
				return nil
			},
			OnQuestionComplete: func(_ context.Context, q domain.Question, answer domain.AnswerRecord, mc *Context) error {
				if !answer.Correct && q.Explanation != "" {
					mc.Actions.ShowToast(q.Explanation, SeverityInfo)
				}
				return nil
			},
			OnModeComplete: func(_ context.Context, results Results, mc *Context) error {
				mc.Actions.UpdateGameMetadata(map[string]string{
					"final_score": fmt.Sprintf("%d", results.Score),
				})
				return nil
			},
		},
		Header: func(mc *Context) HeaderData {
			return HeaderData{
				Title:    cfg.DisplayName,
				Subtitle: fmt.Sprintf("Question %d of %d", mc.CurrentQuestionIndex+1, len(mc.Questions)),
			}
		},
		Interface: func(mc *Context) InterfaceData {
			data := InterfaceData{
				ShowHint:        true,
				ShowExplanation: true,
				AllowSkip:       true,
			}
			if q, ok := mc.CurrentQuestion(); ok {
				data.Hint = q.Hint
			}
			return data
		},
		Analytics: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(ClassicState)
			return map[string]any{
				"mode":               string(ModeClassic),
				"questions_answered": state.QuestionsAnswered,
				"correct_answers":    state.CorrectAnswers,
			}
		},
		Progress: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(ClassicState)
			return map[string]any{
				"questions_answered": state.QuestionsAnswered,
				"score":              mc.Score,
			}
		},
	})
}

func reduceClassic(state State, action Action) State {
	current, ok := state.(ClassicState)
	if !ok {
		return state
	}
	switch a := action.(type) {
	case AnswerSubmitAction:
		next := current
		next.QuestionsAnswered++
		if a.Answer.Correct {
			next.CorrectAnswers++
		}
		return next
	default:
		return state
	}
}
