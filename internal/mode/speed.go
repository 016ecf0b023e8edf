package mode

import (
	"context"
	"fmt"
	"time"

	"civicquiz-service/internal/domain"
)

const (
	// speedBonusPerfect is awarded for a fast correct answer.
	speedBonusPerfect = 10
	// speedBonusCorrect is awarded for a correct answer outside the fast window.
	speedBonusCorrect = 5
	// speedScoreBonusPerCorrect is the flat per-answer term in the final score.
	speedScoreBonusPerCorrect = 3
	// speedMasteryRatio is the fast-answer ratio that earns the mastery tag.
	speedMasteryRatio = 0.7
)

// SpeedConfig tunes the speed round. FastThreshold is the window within
// which an answer counts as fast; answers carrying no timing data classify
// as fast, which keeps the historical behavior for clients that do not
// report response times yet.
type SpeedConfig struct {
	FastThreshold    time.Duration
	TimeLimitSeconds int
}

func (c SpeedConfig) withDefaults() SpeedConfig {
	if c.FastThreshold <= 0 {
		c.FastThreshold = 5 * time.Second
	}
	if c.TimeLimitSeconds <= 0 {
		c.TimeLimitSeconds = 15
	}
	return c
}

// SpeedState is the speed round's reducer-managed state.
type SpeedState struct {
	QuestionsAnswered int
	FastAnswers       int
	SlowAnswers       int
	PerfectAnswers    int
	AverageResponse   time.Duration
	CurrentStreak     int
	BonusPointsEarned int

	fastThreshold time.Duration
}

func (SpeedState) ModeID() ID { return ModeSpeedRound }

// FastRatio returns the share of answers classified fast.
func (s SpeedState) FastRatio() float64 {
	if s.QuestionsAnswered == 0 {
		return 0
	}
	return float64(s.FastAnswers) / float64(s.QuestionsAnswered)
}

// classifyFast reports whether the answer falls in the fast window.
// Zero TimeSpent means the client supplied no timing data; such answers
// count as fast.
func (s SpeedState) classifyFast(answer domain.AnswerRecord) bool {
	threshold := s.fastThreshold
	if threshold <= 0 {
		threshold = 5 * time.Second
	}
	return answer.TimeSpent == 0 || answer.TimeSpent <= threshold
}

// NewSpeedRound builds the timed solo mode. Fast correct answers earn +10
// bonus points, slower correct answers +5, and an incorrect answer resets
// the streak.
func NewSpeedRound(speedCfg SpeedConfig) Plugin {
	speedCfg = speedCfg.withDefaults()

	cfg := Config{
		ID:          ModeSpeedRound,
		DisplayName: "Speed Round",
		Description: "Race the clock; quick correct answers earn bonus points.",
		Category:    CategorySolo,
		Settings: Settings{
			TimeLimitSeconds: TimeLimit(speedCfg.TimeLimitSeconds),
			AutoAdvance:      true,
		},
	}

	return New(Descriptor{
		Config: cfg,
		InitialState: func() State {
			return SpeedState{fastThreshold: speedCfg.FastThreshold}
		},
		Reduce: reduceSpeed,
		Hooks: Hooks{
			OnModeStart: func(_ context.Context, mc *Context) error {
				mc.Actions.UpdateGameMetadata(map[string]string{"mode": string(ModeSpeedRound)})
				mc.Actions.ShowToast(
					fmt.Sprintf("Speed round: %d seconds per question. Fast answers earn bonus points!", speedCfg.TimeLimitSeconds),
					SeverityInfo,
				)
				return nil
			},
			OnQuestionComplete: func(_ context.Context, _ domain.Question, answer domain.AnswerRecord, mc *Context) error {
				if !answer.Correct {
					return nil
				}
				state, _ := mc.ModeState.(SpeedState)
				if state.classifyFast(answer) {
					mc.Actions.ShowToast("Fast answer! +10 bonus points", SeveritySuccess)
				} else {
					mc.Actions.ShowToast("Correct! +5 bonus points", SeveritySuccess)
				}
				return nil
			},
			OnModeComplete: func(_ context.Context, results Results, mc *Context) error {
				state, _ := mc.ModeState.(SpeedState)
				meta := map[string]string{
					"bonus_points": fmt.Sprintf("%d", state.BonusPointsEarned),
					"final_score":  fmt.Sprintf("%d", results.Score),
				}
				if state.FastRatio() >= speedMasteryRatio {
					meta["speed_mastery"] = "true"
					mc.Actions.ShowToast("Speed mastery achieved!", SeveritySuccess)
				}
				mc.Actions.UpdateGameMetadata(meta)
				return nil
			},
		},
		Score: func(answers []domain.AnswerRecord, questions []domain.Question) int {
			correct := 0
			for _, a := range answers {
				if a.Correct {
					correct++
				}
			}
			return ClampScore(BaseScore(answers, questions), float64(correct*speedScoreBonusPerCorrect))
		},
		Header: func(mc *Context) HeaderData {
			state, _ := mc.ModeState.(SpeedState)
			return HeaderData{
				Title:    cfg.DisplayName,
				Subtitle: fmt.Sprintf("%.0fs left", mc.TimeRemaining.Seconds()),
				Badges: []Badge{
					{Label: "Streak", Value: fmt.Sprintf("%d", state.CurrentStreak)},
					{Label: "Bonus", Value: fmt.Sprintf("%d", state.BonusPointsEarned)},
				},
			}
		},
		Interface: func(mc *Context) InterfaceData {
			return InterfaceData{
				Notice: fmt.Sprintf("Answer within %d seconds", speedCfg.TimeLimitSeconds),
			}
		},
		Analytics: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(SpeedState)
			return map[string]any{
				"mode":                string(ModeSpeedRound),
				"questions_answered":  state.QuestionsAnswered,
				"fast_answers":        state.FastAnswers,
				"slow_answers":        state.SlowAnswers,
				"perfect_answers":     state.PerfectAnswers,
				"average_response_ms": state.AverageResponse.Milliseconds(),
				"fast_ratio":          state.FastRatio(),
			}
		},
		Progress: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(SpeedState)
			return map[string]any{
				"questions_answered": state.QuestionsAnswered,
				"current_streak":     state.CurrentStreak,
				"bonus_points":       state.BonusPointsEarned,
				"score":              mc.Score,
			}
		},
	})
}

func reduceSpeed(state State, action Action) State {
	current, ok := state.(SpeedState)
	if !ok {
		return state
	}
	switch a := action.(type) {
	case AnswerSubmitAction:
		next := current
		next.QuestionsAnswered++

		fast := current.classifyFast(a.Answer)
		if fast {
			next.FastAnswers++
		} else {
			next.SlowAnswers++
		}

		prior := time.Duration(current.QuestionsAnswered) * current.AverageResponse
		next.AverageResponse = (prior + a.Answer.TimeSpent) / time.Duration(next.QuestionsAnswered)

		if a.Answer.Correct {
			next.CurrentStreak++
			if fast {
				next.PerfectAnswers++
				next.BonusPointsEarned += speedBonusPerfect
			} else {
				next.BonusPointsEarned += speedBonusCorrect
			}
		} else {
			next.CurrentStreak = 0
		}
		return next
	default:
		return state
	}
}
