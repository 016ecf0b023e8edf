package mode

import (
	"context"
	"testing"
	"time"

	"civicquiz-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roomWithPlayers() MultiplayerState {
	a1, a2 := "o1", "o3"
	return MultiplayerState{
		RoomCode:     "ABC123",
		HostID:       "u1",
		Phase:        PhaseActive,
		CurrentRound: 1,
		Players: []RoomPlayer{
			{ID: "u1", DisplayName: "Alice", Score: 2, CurrentAnswer: &a1},
			{ID: "u2", DisplayName: "Bob", Score: 1, CurrentAnswer: &a2},
			{ID: "u3", DisplayName: "Cara", Score: 1},
		},
	}
}

func reduceRoom(t *testing.T, state MultiplayerState, event MultiplayerEvent) MultiplayerState {
	t.Helper()
	plugin := NewMultiplayer()
	next, ok := plugin.Reduce(state, MultiplayerEventAction{Event: event}).(MultiplayerState)
	require.True(t, ok)
	return next
}

func TestMultiplayerRoundCompleteResetsAnswersAndAppliesScores(t *testing.T) {
	state := roomWithPlayers()
	next := reduceRoom(t, state, RoundComplete{Scores: map[string]int{"u1": 5, "u2": 3}})

	assert.Equal(t, 2, next.CurrentRound)
	require.Len(t, next.Players, 3)
	assert.Equal(t, []string{"u1", "u2", "u3"}, []string{next.Players[0].ID, next.Players[1].ID, next.Players[2].ID},
		"roster order must be preserved")
	for _, p := range next.Players {
		assert.Nil(t, p.CurrentAnswer)
	}
	assert.Equal(t, 5, next.Players[0].Score)
	assert.Equal(t, 3, next.Players[1].Score)
	assert.Equal(t, 1, next.Players[2].Score, "players absent from the score map keep their score")

	// input roster untouched
	assert.NotNil(t, state.Players[0].CurrentAnswer)
	assert.Equal(t, 2, state.Players[0].Score)
}

func TestMultiplayerPlayerAnswerUpdatesOnlyMatchingPlayer(t *testing.T) {
	state := roomWithPlayers()
	next := reduceRoom(t, state, PlayerAnswer{PlayerID: "u3", OptionID: "o2"})

	require.NotNil(t, next.Players[2].CurrentAnswer)
	assert.Equal(t, "o2", *next.Players[2].CurrentAnswer)
	assert.Equal(t, "o1", *next.Players[0].CurrentAnswer)
	assert.Equal(t, "o3", *next.Players[1].CurrentAnswer)
}

func TestMultiplayerJoinLeaveReady(t *testing.T) {
	plugin := NewMultiplayer()
	state, ok := plugin.InitialState().(MultiplayerState)
	require.True(t, ok)
	assert.Equal(t, PhaseWaiting, state.Phase)
	assert.NotEmpty(t, state.RoomCode)

	state = reduceRoom(t, state, PlayerJoined{PlayerID: "u1", DisplayName: "Alice", Host: true})
	state = reduceRoom(t, state, PlayerJoined{PlayerID: "u2", DisplayName: "Bob"})
	assert.Equal(t, "u1", state.HostID)
	require.Len(t, state.Players, 2)

	// duplicate join refreshes the name only
	state = reduceRoom(t, state, PlayerJoined{PlayerID: "u2", DisplayName: "Bobby"})
	require.Len(t, state.Players, 2)
	assert.Equal(t, "Bobby", state.Players[1].DisplayName)

	state = reduceRoom(t, state, PlayerReady{PlayerID: "u2"})
	assert.False(t, state.Players[0].Ready)
	assert.True(t, state.Players[1].Ready)
	assert.False(t, state.AllReady())

	state = reduceRoom(t, state, PlayerLeft{PlayerID: "u1"})
	require.Len(t, state.Players, 1)
	assert.Equal(t, "u2", state.HostID, "host role passes to the next player")
	assert.True(t, state.AllReady())
}

func TestMultiplayerPhaseTransitionsAreForwardOnly(t *testing.T) {
	cases := []struct {
		from, to GamePhase
		allowed  bool
	}{
		{PhaseWaiting, PhaseActive, true},
		{PhaseActive, PhaseBetweenQuestions, true},
		{PhaseBetweenQuestions, PhaseActive, true},
		{PhaseBetweenQuestions, PhaseCompleted, true},
		{PhaseActive, PhaseCompleted, true},
		{PhaseActive, PhaseWaiting, false},
		{PhaseCompleted, PhaseActive, false},
		{PhaseCompleted, PhaseWaiting, false},
		{PhaseWaiting, GamePhase("bogus"), false},
	}

	for _, tc := range cases {
		state := MultiplayerState{Phase: tc.from}
		next := reduceRoom(t, state, GamePhaseChange{Phase: tc.to})
		if tc.allowed {
			assert.Equal(t, tc.to, next.Phase, "%s -> %s should advance", tc.from, tc.to)
		} else {
			assert.Equal(t, tc.from, next.Phase, "%s -> %s must be ignored", tc.from, tc.to)
		}
	}
}

func TestMultiplayerAllAnswered(t *testing.T) {
	state := roomWithPlayers()
	assert.False(t, state.AllAnswered())

	state = reduceRoom(t, state, PlayerAnswer{PlayerID: "u3", OptionID: "o1"})
	assert.True(t, state.AllAnswered())

	assert.False(t, MultiplayerState{}.AllAnswered())
}

func TestMultiplayerScorePaceBonusTiers(t *testing.T) {
	plugin := NewMultiplayer()
	questions := make([]domain.Question, 4)

	answersWithMean := func(mean time.Duration) []domain.AnswerRecord {
		answers := make([]domain.AnswerRecord, 4)
		for i := range answers {
			answers[i] = domain.AnswerRecord{Correct: i < 2, TimeSpent: mean}
		}
		return answers
	}

	// base 50 plus the tiered pace bonus
	assert.Equal(t, 55, plugin.CalculateScore(answersWithMean(10*time.Second), questions))
	assert.Equal(t, 52, plugin.CalculateScore(answersWithMean(40*time.Second), questions))
	assert.Equal(t, 50, plugin.CalculateScore(answersWithMean(50*time.Second), questions))
}

func TestMultiplayerSubmitVetoedOutsideActivePhase(t *testing.T) {
	plugin := NewMultiplayer()
	hooks := plugin.Hooks()
	require.NotNil(t, hooks.OnAnswerSubmit)

	waiting := &Context{ModeState: MultiplayerState{Phase: PhaseWaiting}}
	accepted, err := hooks.OnAnswerSubmit(context.Background(), domain.AnswerRecord{}, waiting)
	require.NoError(t, err)
	assert.False(t, accepted)

	active := &Context{ModeState: MultiplayerState{Phase: PhaseActive}}
	accepted, err = hooks.OnAnswerSubmit(context.Background(), domain.AnswerRecord{}, active)
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestNewRoomCode(t *testing.T) {
	code := NewRoomCode()
	assert.Len(t, code, 6)
	assert.NotEqual(t, code, NewRoomCode())
}
