package mode

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civicquiz-service/internal/domain"
	"github.com/google/uuid"
)

// GamePhase is the coarse multiplayer session stage. The machine is
// linear: waiting -> active -> between_questions -> completed, with
// completed terminal. between_questions may recur before completion, but
// a room never returns to waiting.
type GamePhase string

const (
	// PhaseWaiting indicates the room is waiting for players to ready up.
	PhaseWaiting GamePhase = "waiting"

	// PhaseActive indicates a question round is in progress.
	PhaseActive GamePhase = "active"

	// PhaseBetweenQuestions indicates the interlude after a round completes.
	PhaseBetweenQuestions GamePhase = "between_questions"

	// PhaseCompleted indicates the game has finished.
	PhaseCompleted GamePhase = "completed"
)

func phaseRank(p GamePhase) int {
	switch p {
	case PhaseWaiting:
		return 0
	case PhaseActive:
		return 1
	case PhaseBetweenQuestions:
		return 2
	case PhaseCompleted:
		return 3
	default:
		return -1
	}
}

// advancesPhase reports whether moving from to next is a legal forward
// transition. active and between_questions alternate during play, so a
// step from between_questions back to active is allowed; everything else
// must strictly advance.
func advancesPhase(from, to GamePhase) bool {
	if phaseRank(to) < 0 || from == PhaseCompleted {
		return false
	}
	if from == PhaseBetweenQuestions && to == PhaseActive {
		return true
	}
	return phaseRank(to) > phaseRank(from)
}

// RoomPlayer is one entry in the multiplayer roster.
type RoomPlayer struct {
	ID            string  `json:"id"`
	DisplayName   string  `json:"displayName"`
	Score         int     `json:"score"`
	Ready         bool    `json:"ready"`
	CurrentAnswer *string `json:"currentAnswer"`
}

// MultiplayerState is the room's reducer-managed state.
type MultiplayerState struct {
	RoomCode     string
	Players      []RoomPlayer
	CurrentRound int
	HostID       string
	Phase        GamePhase
}

func (MultiplayerState) ModeID() ID { return ModeMultiplayer }

// PlayerByID returns the roster entry for id.
func (s MultiplayerState) PlayerByID(id string) (RoomPlayer, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return RoomPlayer{}, false
}

// AllAnswered reports whether every player has a current answer.
func (s MultiplayerState) AllAnswered() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if p.CurrentAnswer == nil {
			return false
		}
	}
	return true
}

// AllReady reports whether every player has readied up.
func (s MultiplayerState) AllReady() bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// NewRoomCode returns a short join code for a multiplayer room.
func NewRoomCode() string {
	return strings.ToUpper(uuid.NewString()[:6])
}

const (
	// multiplayerFastMean and multiplayerSlowMean are the mean response
	// time cutoffs for the score bonus tiers.
	multiplayerFastMean = 30 * time.Second
	multiplayerSlowMean = 45 * time.Second
)

// NewMultiplayer builds the competitive room mode. Answers are vetoed
// outside the active phase, rounds advance once every player has answered,
// and the final score carries a pace bonus.
func NewMultiplayer() Plugin {
	cfg := Config{
		ID:           ModeMultiplayer,
		DisplayName:  "Multiplayer Battle",
		Description:  "Compete against other players in real time.",
		Category:     CategoryMultiplayer,
		RequiresAuth: true,
		Settings: Settings{
			TimeLimitSeconds: TimeLimit(30),
			AutoAdvance:      true,
		},
	}

	return New(Descriptor{
		Config: cfg,
		InitialState: func() State {
			return MultiplayerState{
				RoomCode: NewRoomCode(),
				Phase:    PhaseWaiting,
			}
		},
		Reduce: reduceMultiplayer,
		Hooks: Hooks{
			OnModeStart: func(_ context.Context, mc *Context) error {
				state, _ := mc.ModeState.(MultiplayerState)
				mc.Actions.UpdateGameMetadata(map[string]string{
					"mode":      string(ModeMultiplayer),
					"room_code": state.RoomCode,
				})
				mc.Actions.ShowToast("Game on! First question coming up.", SeverityInfo)
				return nil
			},
			OnAnswerSubmit: func(_ context.Context, _ domain.AnswerRecord, mc *Context) (bool, error) {
				state, _ := mc.ModeState.(MultiplayerState)
				return state.Phase == PhaseActive, nil
			},
			OnModeComplete: func(_ context.Context, results Results, mc *Context) error {
				state, _ := mc.ModeState.(MultiplayerState)
				meta := map[string]string{
					"rounds_played": fmt.Sprintf("%d", state.CurrentRound),
					"final_score":   fmt.Sprintf("%d", results.Score),
				}
				if winner, ok := roomLeader(state); ok {
					meta["winner"] = winner.ID
				}
				mc.Actions.UpdateGameMetadata(meta)
				return nil
			},
		},
		Score: func(answers []domain.AnswerRecord, questions []domain.Question) int {
			return ClampScore(BaseScore(answers, questions), multiplayerPaceBonus(answers))
		},
		Header: func(mc *Context) HeaderData {
			state, _ := mc.ModeState.(MultiplayerState)
			return HeaderData{
				Title:    cfg.DisplayName,
				Subtitle: fmt.Sprintf("Room %s", state.RoomCode),
				Badges: []Badge{
					{Label: "Round", Value: fmt.Sprintf("%d", state.CurrentRound+1)},
					{Label: "Players", Value: fmt.Sprintf("%d", len(state.Players))},
					{Label: "Phase", Value: string(state.Phase)},
				},
			}
		},
		Interface: func(mc *Context) InterfaceData {
			state, _ := mc.ModeState.(MultiplayerState)
			data := InterfaceData{}
			switch state.Phase {
			case PhaseWaiting:
				data.Notice = "Waiting for all players to ready up"
			case PhaseBetweenQuestions:
				data.Notice = "Next round starting soon"
			case PhaseCompleted:
				data.Notice = "Game over"
			}
			return data
		},
		Analytics: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(MultiplayerState)
			return map[string]any{
				"mode":          string(ModeMultiplayer),
				"room_code":     state.RoomCode,
				"player_count":  len(state.Players),
				"rounds_played": state.CurrentRound,
				"phase":         string(state.Phase),
			}
		},
		Progress: func(mc *Context) map[string]any {
			state, _ := mc.ModeState.(MultiplayerState)
			score := 0
			if p, ok := state.PlayerByID(mc.UserID); ok {
				score = p.Score
			}
			return map[string]any{
				"round": state.CurrentRound,
				"score": score,
			}
		},
	})
}

func multiplayerPaceBonus(answers []domain.AnswerRecord) float64 {
	if len(answers) == 0 {
		return 0
	}
	var total time.Duration
	for _, a := range answers {
		total += a.TimeSpent
	}
	mean := total / time.Duration(len(answers))
	switch {
	case mean < multiplayerFastMean:
		return 5
	case mean < multiplayerSlowMean:
		return 2
	default:
		return 0
	}
}

func roomLeader(state MultiplayerState) (RoomPlayer, bool) {
	if len(state.Players) == 0 {
		return RoomPlayer{}, false
	}
	leader := state.Players[0]
	for _, p := range state.Players[1:] {
		if p.Score > leader.Score {
			leader = p
		}
	}
	return leader, true
}

func reduceMultiplayer(state State, action Action) State {
	current, ok := state.(MultiplayerState)
	if !ok {
		return state
	}
	wrapped, ok := action.(MultiplayerEventAction)
	if !ok {
		return state
	}

	switch event := wrapped.Event.(type) {
	case PlayerJoined:
		next := current
		next.Players = clonePlayers(current.Players)
		for i := range next.Players {
			if next.Players[i].ID == event.PlayerID {
				next.Players[i].DisplayName = event.DisplayName
				return next
			}
		}
		next.Players = append(next.Players, RoomPlayer{
			ID:          event.PlayerID,
			DisplayName: event.DisplayName,
		})
		if event.Host || next.HostID == "" {
			next.HostID = event.PlayerID
		}
		return next

	case PlayerLeft:
		next := current
		players := make([]RoomPlayer, 0, len(current.Players))
		for _, p := range current.Players {
			if p.ID != event.PlayerID {
				players = append(players, p)
			}
		}
		next.Players = players
		if next.HostID == event.PlayerID && len(players) > 0 {
			next.HostID = players[0].ID
		}
		return next

	case PlayerReady:
		next := current
		next.Players = clonePlayers(current.Players)
		for i := range next.Players {
			if next.Players[i].ID == event.PlayerID {
				next.Players[i].Ready = true
			}
		}
		return next

	case PlayerAnswer:
		next := current
		next.Players = clonePlayers(current.Players)
		for i := range next.Players {
			if next.Players[i].ID == event.PlayerID {
				answer := event.OptionID
				next.Players[i].CurrentAnswer = &answer
			}
		}
		return next

	case RoundComplete:
		next := current
		next.CurrentRound++
		next.Players = clonePlayers(current.Players)
		for i := range next.Players {
			if score, ok := event.Scores[next.Players[i].ID]; ok {
				next.Players[i].Score = score
			}
			next.Players[i].CurrentAnswer = nil
		}
		return next

	case GamePhaseChange:
		if !advancesPhase(current.Phase, event.Phase) {
			return state
		}
		next := current
		next.Phase = event.Phase
		return next

	default:
		return state
	}
}

func clonePlayers(players []RoomPlayer) []RoomPlayer {
	if players == nil {
		return nil
	}
	cloned := make([]RoomPlayer, len(players))
	copy(cloned, players)
	return cloned
}
