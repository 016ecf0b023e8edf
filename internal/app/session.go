package app

import (
	"sort"
	"sync"
	"time"

	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/mode"
)

// EventType tags messages fanned out to session subscribers.
type EventType string

const (
	EventSnapshot EventType = "snapshot"
	EventToast    EventType = "toast"
)

// Toast is a transient notification raised by a mode hook.
type Toast struct {
	Message  string        `json:"message"`
	Severity mode.Severity `json:"severity"`
}

// Event is one update delivered to session subscribers.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
	Toast    *Toast    `json:"toast,omitempty"`
}

// Snapshot is the engine's full broadcastable view of a session.
type Snapshot struct {
	QuizID        string             `json:"quizId"`
	Mode          mode.ID            `json:"mode"`
	Header        mode.HeaderData    `json:"header"`
	Interface     mode.InterfaceData `json:"interface"`
	Leaderboard   domain.Leaderboard `json:"leaderboard"`
	QuestionIndex int                `json:"questionIndex"`
	QuestionCount int                `json:"questionCount"`
	Started       bool               `json:"started"`
	Completed     bool               `json:"completed"`
	Metadata      map[string]string  `json:"metadata,omitempty"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Session is the in-memory host engine for one quiz. It owns the
// authoritative question list, per-participant answers, the active mode
// plugin and its private state, and the subscriber fan-out.
type Session struct {
	id        string
	plugin    mode.Plugin
	quiz      domain.Quiz
	createdAt time.Time
	now       func() time.Time

	mu            sync.RWMutex
	state         mode.State
	participants  map[string]*domain.Participant
	answers       map[string][]domain.AnswerRecord
	questionAt    map[string]time.Time
	finished      map[string]bool
	metadata      map[string]string
	questionIndex int
	hostID        string
	started       bool
	completed     bool
	subscribers   map[chan Event]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id string, plugin mode.Plugin, quiz domain.Quiz) *Session {
	return NewSessionWithClock(id, plugin, quiz, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, plugin mode.Plugin, quiz domain.Quiz, now func() time.Time) *Session {
	return &Session{
		id:           id,
		plugin:       plugin,
		quiz:         quiz,
		createdAt:    now(),
		now:          now,
		state:        plugin.InitialState(),
		participants: make(map[string]*domain.Participant),
		answers:      make(map[string][]domain.AnswerRecord),
		questionAt:   make(map[string]time.Time),
		finished:     make(map[string]bool),
		metadata:     make(map[string]string),
		subscribers:  make(map[chan Event]struct{}),
	}
}

// Plugin returns the mode driving this session.
func (s *Session) Plugin() mode.Plugin {
	return s.plugin
}

// Quiz returns the session's question content.
func (s *Session) Quiz() domain.Quiz {
	return s.quiz
}

// IsEmpty reports whether the session has no participants.
func (s *Session) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.participants) == 0
}

func (s *Session) join(userID, displayName string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, existed := s.participants[userID]
	if existed {
		s.participants[userID].DisplayName = displayName
		s.participants[userID].LastUpdated = now
	} else {
		s.participants[userID] = &domain.Participant{
			UserID:      userID,
			DisplayName: displayName,
			LastUpdated: now,
		}
		if s.hostID == "" {
			s.hostID = userID
		}
		s.questionAt[userID] = now
	}

	if s.plugin.Config().Category == mode.CategoryMultiplayer {
		s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.PlayerJoined{
			PlayerID:    userID,
			DisplayName: displayName,
			Host:        s.hostID == userID,
		}})
	}

	return s.broadcastLocked(), !existed
}

func (s *Session) leave(userID string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.participants, userID)
	delete(s.questionAt, userID)
	if s.plugin.Config().Category == mode.CategoryMultiplayer {
		s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.PlayerLeft{PlayerID: userID}})
		if ms, ok := s.state.(mode.MultiplayerState); ok {
			s.hostID = ms.HostID
		}
	}
	return s.broadcastLocked()
}

func (s *Session) markReady(userID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[userID]
	if !ok {
		return Snapshot{}, domain.ErrParticipantNotFound
	}
	participant.Ready = true
	participant.LastUpdated = s.now()
	s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.PlayerReady{PlayerID: userID}})
	return s.broadcastLocked(), nil
}

// begin marks the session started and opens the first question.
func (s *Session) begin() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return s.snapshotLocked()
	}
	s.started = true
	s.questionIndex = 0
	now := s.now()
	for id := range s.participants {
		s.questionAt[id] = now
	}
	if s.plugin.Config().Category == mode.CategoryMultiplayer {
		s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.GamePhaseChange{Phase: mode.PhaseActive}})
	}
	return s.broadcastLocked()
}

func (s *Session) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Session) host() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hostID
}

// elapsedFor returns time since the user's current question opened.
func (s *Session) elapsedFor(userID string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.questionAt[userID]
	if !ok {
		return 0
	}
	return s.now().Sub(at)
}

type answerApplied struct {
	snapshot     Snapshot
	totalScore   int
	userFinished bool
	gameFinished bool
	nextIndex    int
}

// applyAnswer records a scored answer: reducer dispatch, participant
// scoring, per-user or room-wide advancement, and one broadcast.
func (s *Session) applyAnswer(userID string, rec domain.AnswerRecord, awarded int) (answerApplied, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	participant, ok := s.participants[userID]
	if !ok {
		return answerApplied{}, domain.ErrParticipantNotFound
	}

	now := s.now()
	s.state = s.plugin.Reduce(s.state, mode.AnswerSubmitAction{Answer: rec})

	multiplayer := s.plugin.Config().Category == mode.CategoryMultiplayer
	if multiplayer {
		s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.PlayerAnswer{
			PlayerID: userID,
			OptionID: rec.OptionID,
		}})
	}

	participant.Score += awarded
	participant.LastUpdated = now
	s.answers[userID] = append(s.answers[userID], rec)
	s.questionAt[userID] = now

	applied := answerApplied{totalScore: participant.Score}

	if multiplayer {
		if ms, ok := s.state.(mode.MultiplayerState); ok && ms.AllAnswered() {
			scores := make(map[string]int, len(s.participants))
			for id, p := range s.participants {
				scores[id] = p.Score
			}
			s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.RoundComplete{Scores: scores}})

			s.questionIndex++
			if s.questionIndex >= len(s.quiz.Questions) {
				s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.GamePhaseChange{Phase: mode.PhaseCompleted}})
				s.completed = true
				applied.gameFinished = true
			} else {
				s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.GamePhaseChange{Phase: mode.PhaseBetweenQuestions}})
				s.state = s.plugin.Reduce(s.state, mode.MultiplayerEventAction{Event: mode.GamePhaseChange{Phase: mode.PhaseActive}})
				for id := range s.participants {
					s.questionAt[id] = now
				}
			}
		}
		applied.nextIndex = s.questionIndex
	} else {
		applied.userFinished = len(s.answers[userID]) >= len(s.quiz.Questions)
		if applied.userFinished {
			s.finished[userID] = true
		}
		applied.nextIndex = len(s.answers[userID])
	}

	applied.snapshot = s.broadcastLocked()
	return applied, nil
}

func (s *Session) hasFinished(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.finished[userID] || s.completed
}

func (s *Session) results(userID string) mode.Results {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers := make([]domain.AnswerRecord, len(s.answers[userID]))
	copy(answers, s.answers[userID])
	return mode.Results{
		Answers:  answers,
		Score:    s.plugin.CalculateScore(answers, s.quiz.Questions),
		Duration: s.now().Sub(s.createdAt),
	}
}

// modeContext builds the read-only host context handed to hooks and view
// callbacks for one user.
func (s *Session) modeContext(userID string) *mode.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modeContextLocked(userID)
}

func (s *Session) modeContextLocked(userID string) *mode.Context {
	score := 0
	index := s.questionIndex
	if p, ok := s.participants[userID]; ok {
		score = p.Score
	}
	if s.plugin.Config().Category == mode.CategorySolo && userID != "" {
		index = len(s.answers[userID])
	}

	metadata := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		metadata[k] = v
	}

	return &mode.Context{
		QuizID:               s.id,
		Questions:            s.quiz.Questions,
		CurrentQuestionIndex: index,
		ModeState:            s.state,
		Settings:             s.plugin.Config().Settings,
		TimeRemaining:        s.timeRemainingLocked(userID),
		Score:                score,
		UserID:               userID,
		GameMetadata:         metadata,
		Actions:              &sessionActions{session: s},
	}
}

func (s *Session) timeRemainingLocked(userID string) time.Duration {
	limit := s.plugin.Config().Settings.TimeLimitSeconds
	if limit == nil {
		return 0
	}
	at, ok := s.questionAt[userID]
	if !ok {
		return time.Duration(*limit) * time.Second
	}
	remaining := time.Duration(*limit)*time.Second - s.now().Sub(at)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- Event{Type: EventSnapshot, Snapshot: &initial}

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() Snapshot {
	snap := s.snapshotLocked()
	s.fanOutLocked(Event{Type: EventSnapshot, Snapshot: &snap})
	return snap
}

// fanOutLocked delivers an event to every subscriber, dropping the oldest
// queued event for a slow consumer so broadcast never blocks.
func (s *Session) fanOutLocked(event Event) {
	for ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

func (s *Session) snapshotLocked() Snapshot {
	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, participant := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      participant.UserID,
			DisplayName: participant.DisplayName,
			Score:       participant.Score,
			Ready:       participant.Ready,
		})
	}

	// Score descending; ties go to whoever reached the score first, then name.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		pi := s.participants[entries[i].UserID]
		pj := s.participants[entries[j].UserID]
		if pi != nil && pj != nil && !pi.LastUpdated.Equal(pj.LastUpdated) {
			return pi.LastUpdated.Before(pj.LastUpdated)
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})

	metadata := make(map[string]string, len(s.metadata))
	for k, v := range s.metadata {
		metadata[k] = v
	}

	viewCtx := s.modeContextLocked("")
	return Snapshot{
		QuizID:    s.id,
		Mode:      s.plugin.Config().ID,
		Header:    s.plugin.HeaderData(viewCtx),
		Interface: s.plugin.InterfaceData(viewCtx),
		Leaderboard: domain.Leaderboard{
			QuizID:    s.id,
			Entries:   entries,
			UpdatedAt: s.now(),
		},
		QuestionIndex: s.questionIndex,
		QuestionCount: len(s.quiz.Questions),
		Started:       s.started,
		Completed:     s.completed,
		Metadata:      metadata,
		UpdatedAt:     s.now(),
	}
}

// sessionActions is the engine-backed side-effect surface handed to hooks.
// Hooks run outside the session lock, so these methods may lock freely.
type sessionActions struct {
	session *Session
}

func (a *sessionActions) ShowToast(message string, severity mode.Severity) {
	s := a.session
	s.mu.Lock()
	defer s.mu.Unlock()
	toast := Toast{Message: message, Severity: severity}
	s.fanOutLocked(Event{Type: EventToast, Toast: &toast})
}

func (a *sessionActions) UpdateModeState(apply func(mode.State) mode.State) {
	s := a.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = apply(s.state)
	s.broadcastLocked()
}

func (a *sessionActions) UpdateGameMetadata(patch map[string]string) {
	s := a.session
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range patch {
		s.metadata[k] = v
	}
	s.broadcastLocked()
}
