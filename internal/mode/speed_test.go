package mode

import (
	"testing"
	"time"

	"civicquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type unknownAction struct{}

func (unknownAction) isAction() {}

func TestSpeedReducerUnknownActionReturnsStateUnchanged(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	state := SpeedState{QuestionsAnswered: 4, FastAnswers: 3, CurrentStreak: 2, BonusPointsEarned: 25}

	assert.Equal(t, State(state), plugin.Reduce(state, unknownAction{}))
	assert.Equal(t, State(state), plugin.Reduce(state, TimerUpdateAction{Remaining: time.Second}))
	assert.Equal(t, State(state), plugin.Reduce(state, MultiplayerEventAction{Event: PlayerReady{PlayerID: "u1"}}))
}

func TestSpeedReducerCorrectFastAnswer(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	state := SpeedState{
		QuestionsAnswered: 3,
		FastAnswers:       2,
		PerfectAnswers:    1,
		CurrentStreak:     2,
		BonusPointsEarned: 15,
	}

	next, ok := plugin.Reduce(state, AnswerSubmitAction{
		Answer: domain.AnswerRecord{QuestionID: "q4", Correct: true},
	}).(SpeedState)
	require.True(t, ok)

	assert.Equal(t, 4, next.QuestionsAnswered)
	assert.Equal(t, 3, next.FastAnswers)
	assert.Equal(t, 2, next.PerfectAnswers)
	assert.Equal(t, 3, next.CurrentStreak)
	assert.Equal(t, 25, next.BonusPointsEarned)

	// input state untouched
	assert.Equal(t, 2, state.CurrentStreak)
	assert.Equal(t, 15, state.BonusPointsEarned)
}

func TestSpeedReducerSlowCorrectAnswerEarnsSmallerBonus(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{FastThreshold: 5 * time.Second})

	next, ok := plugin.Reduce(SpeedState{fastThreshold: 5 * time.Second}, AnswerSubmitAction{
		Answer: domain.AnswerRecord{QuestionID: "q1", Correct: true, TimeSpent: 12 * time.Second},
	}).(SpeedState)
	require.True(t, ok)

	assert.Equal(t, 0, next.FastAnswers)
	assert.Equal(t, 1, next.SlowAnswers)
	assert.Equal(t, 0, next.PerfectAnswers)
	assert.Equal(t, 1, next.CurrentStreak)
	assert.Equal(t, 5, next.BonusPointsEarned)
	assert.Equal(t, 12*time.Second, next.AverageResponse)
}

func TestSpeedReducerIncorrectAnswerResetsStreak(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	state := SpeedState{QuestionsAnswered: 2, CurrentStreak: 2, BonusPointsEarned: 20}

	next, ok := plugin.Reduce(state, AnswerSubmitAction{
		Answer: domain.AnswerRecord{QuestionID: "q3", Correct: false},
	}).(SpeedState)
	require.True(t, ok)

	assert.Equal(t, 0, next.CurrentStreak)
	assert.Equal(t, 20, next.BonusPointsEarned)
	assert.Equal(t, 3, next.QuestionsAnswered)
}

func TestSpeedReducerAllFastCorrectRunIsMonotone(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	state := plugin.InitialState()

	lastBonus := 0
	for i := 0; i < 10; i++ {
		state = plugin.Reduce(state, AnswerSubmitAction{
			Answer: domain.AnswerRecord{Correct: true},
		})
		speed, ok := state.(SpeedState)
		require.True(t, ok)
		assert.Equal(t, i+1, speed.CurrentStreak, "streak must never reset mid-run")
		assert.Greater(t, speed.BonusPointsEarned, lastBonus, "bonus must accumulate monotonically")
		lastBonus = speed.BonusPointsEarned
	}
}

func TestSpeedScoreFlatBonusClampedAt100(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	questions := make([]domain.Question, 10)

	answers := make([]domain.AnswerRecord, 0, 10)
	for i := 0; i < 8; i++ {
		answers = append(answers, domain.AnswerRecord{Correct: true})
	}
	answers = append(answers, domain.AnswerRecord{}, domain.AnswerRecord{})

	// round(80 + 8*3) clamped to 100
	assert.Equal(t, 100, plugin.CalculateScore(answers, questions))

	assert.Equal(t, 0, plugin.CalculateScore(nil, questions))
	assert.Equal(t, 0, plugin.CalculateScore(nil, nil))
}

func TestSpeedScoreWithinBounds(t *testing.T) {
	plugin := NewSpeedRound(SpeedConfig{})
	questions := make([]domain.Question, 5)

	for correct := 0; correct <= 5; correct++ {
		answers := make([]domain.AnswerRecord, 5)
		for i := 0; i < correct; i++ {
			answers[i].Correct = true
		}
		score := plugin.CalculateScore(answers, questions)
		assert.GreaterOrEqual(t, score, 0)
		assert.LessOrEqual(t, score, 100)
	}
}

func TestSpeedFastRatio(t *testing.T) {
	s := SpeedState{QuestionsAnswered: 10, FastAnswers: 7}
	assert.InDelta(t, 0.7, s.FastRatio(), 1e-9)
	assert.Zero(t, SpeedState{}.FastRatio())
}
