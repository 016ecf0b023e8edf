package mode

import (
	"time"

	"civicquiz-service/internal/domain"
)

// Action is a tagged input to a mode state reducer. Reducers must return
// the input state unchanged for any action type they do not recognize;
// unknown actions are a fallback case, not an error.
type Action interface {
	isAction()
}

// AnswerSubmitAction carries one scored answer into the reducer.
type AnswerSubmitAction struct {
	Answer domain.AnswerRecord
}

// TimerUpdateAction reports the host engine's remaining time for the
// current question.
type TimerUpdateAction struct {
	Remaining time.Duration
}

// MultiplayerEventAction wraps a room-level event.
type MultiplayerEventAction struct {
	Event MultiplayerEvent
}

func (AnswerSubmitAction) isAction()     {}
func (TimerUpdateAction) isAction()      {}
func (MultiplayerEventAction) isAction() {}

// MultiplayerEvent is the nested tag inside MultiplayerEventAction.
type MultiplayerEvent interface {
	isMultiplayerEvent()
}

// PlayerJoined adds a player to the room roster.
type PlayerJoined struct {
	PlayerID    string
	DisplayName string
	Host        bool
}

// PlayerLeft removes a player from the roster.
type PlayerLeft struct {
	PlayerID string
}

// PlayerReady marks a player ready in the waiting phase.
type PlayerReady struct {
	PlayerID string
}

// PlayerAnswer records the answering player's current selection.
type PlayerAnswer struct {
	PlayerID string
	OptionID string
}

// RoundComplete advances the round and applies server-authoritative score
// totals keyed by player ID.
type RoundComplete struct {
	Scores map[string]int
}

// GamePhaseChange moves the room phase forward. Backward transitions are
// ignored by the reducer.
type GamePhaseChange struct {
	Phase GamePhase
}

func (PlayerJoined) isMultiplayerEvent()    {}
func (PlayerLeft) isMultiplayerEvent()      {}
func (PlayerReady) isMultiplayerEvent()     {}
func (PlayerAnswer) isMultiplayerEvent()    {}
func (RoundComplete) isMultiplayerEvent()   {}
func (GamePhaseChange) isMultiplayerEvent() {}
