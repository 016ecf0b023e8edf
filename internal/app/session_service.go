package app

import (
	"context"
	"log"
	"time"

	"civicquiz-service/internal/domain"
	"civicquiz-service/internal/mode"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(quizID string, create func() *Session) *Session
	Get(quizID string) (*Session, bool)
	DeleteIfEmpty(quizID string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// SessionService contains the quiz session use cases: it selects the mode
// plugin, drives its lifecycle hooks at the fixed points, and mediates all
// state changes through the session engine.
type SessionService struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	modes       *mode.Registry
	defaultMode mode.ID
	clock       func() time.Time
}

func NewSessionService(store SessionRepository, quizzes QuizRepository, modes *mode.Registry) *SessionService {
	return &SessionService{
		sessions:    store,
		quizzes:     quizzes,
		modes:       modes,
		defaultMode: mode.ModeClassic,
		clock:       time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *SessionService) WithClock(now func() time.Time) *SessionService {
	s.clock = now
	return s
}

// AnswerOutcome bundles everything a transport needs after a submission.
type AnswerOutcome struct {
	Result   domain.AnswerResult
	Snapshot Snapshot
}

// Join registers a participant, creating the session with the requested
// mode on first join. Solo sessions start immediately; multiplayer rooms
// wait for the host to start the game.
func (s *SessionService) Join(ctx context.Context, quizID, userID, displayName string, modeID mode.ID) (Snapshot, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return Snapshot{}, err
	}

	if modeID == "" {
		modeID = s.defaultMode
	}
	plugin, ok := s.modes.Get(modeID)
	if !ok {
		return Snapshot{}, domain.ErrModeNotFound
	}

	session := s.sessions.GetOrCreate(quizID, func() *Session {
		return NewSessionWithClock(quizID, plugin, quiz, s.clock)
	})

	snap, firstJoin := session.join(userID, displayName)

	// Solo modes begin on first join; no lobby.
	if session.Plugin().Config().Category == mode.CategorySolo && !session.isStarted() {
		snap = session.begin()
		s.fireSessionStart(ctx, session, userID)
		snap = s.snapshotOf(session)
	} else if firstJoin {
		log.Printf("quiz %s: %s joined %s session", quizID, userID, session.Plugin().Config().ID)
	}
	return snap, nil
}

// MarkReady flags a multiplayer participant as ready.
func (s *SessionService) MarkReady(_ context.Context, quizID, userID string) (Snapshot, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return session.markReady(userID)
}

// StartGame begins a multiplayer game. Only the room host may start.
func (s *SessionService) StartGame(ctx context.Context, quizID, userID string) (Snapshot, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	if session.host() != userID {
		return Snapshot{}, domain.ErrNotHost
	}
	snap := session.begin()
	s.fireSessionStart(ctx, session, userID)
	return snap, nil
}

// SubmitAnswer scores an answer through the active mode: the mode may veto
// the submission, its reducer consumes the result, and its question hooks
// run around the scoring.
func (s *SessionService) SubmitAnswer(ctx context.Context, quizID, userID string, submission domain.AnswerSubmission) (AnswerOutcome, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return AnswerOutcome{}, domain.ErrSessionNotFound
	}
	if session.hasFinished(userID) {
		return AnswerOutcome{}, domain.ErrSubmissionRejected
	}

	quiz := session.Quiz()
	settings := session.Plugin().Config().Settings

	elapsed := submission.TimeSpent
	if elapsed == 0 {
		elapsed = session.elapsedFor(userID)
	}
	if settings.TimeLimitSeconds != nil && elapsed > time.Duration(*settings.TimeLimitSeconds)*time.Second {
		return AnswerOutcome{}, domain.ErrSubmissionRejected
	}

	correct, points, err := scoreSubmission(quiz, submission)
	if err != nil {
		return AnswerOutcome{}, err
	}
	question, _ := findQuestion(quiz, submission.QuestionID)

	rec := domain.AnswerRecord{
		QuestionID: submission.QuestionID,
		OptionID:   submission.OptionID,
		Correct:    correct,
		TimeSpent:  submission.TimeSpent,
	}

	hooks := session.Plugin().Hooks()
	if hooks.OnAnswerSubmit != nil {
		accepted, err := hooks.OnAnswerSubmit(ctx, rec, session.modeContext(userID))
		if err != nil {
			return AnswerOutcome{}, err
		}
		if !accepted {
			return AnswerOutcome{}, domain.ErrSubmissionRejected
		}
	}

	awarded := 0
	if correct {
		awarded = points
	}

	applied, err := session.applyAnswer(userID, rec, awarded)
	if err != nil {
		return AnswerOutcome{}, err
	}

	if hooks.OnQuestionComplete != nil {
		if err := hooks.OnQuestionComplete(ctx, question, rec, session.modeContext(userID)); err != nil {
			log.Printf("quiz %s: OnQuestionComplete hook failed: %v", quizID, err)
		}
	}

	switch {
	case applied.userFinished || applied.gameFinished:
		s.fireModeComplete(ctx, session, userID)
	case applied.nextIndex < len(quiz.Questions):
		s.fireQuestionStart(ctx, session, userID, applied.nextIndex)
	}

	result := domain.AnswerResult{
		QuestionID: submission.QuestionID,
		Correct:    correct,
		Awarded:    awarded,
		TotalScore: applied.totalScore,
	}
	if settings.ShowExplanations {
		result.Explanation = question.Explanation
	}
	return AnswerOutcome{Result: result, Snapshot: s.snapshotOf(session)}, nil
}

// Subscribe returns a channel that receives session events for a quiz.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, quizID string) (<-chan Event, func(), error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Leave removes a participant from the session and drops the session if empty.
func (s *SessionService) Leave(_ context.Context, quizID, userID string) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return
	}
	session.leave(userID)
	if session.IsEmpty() {
		s.sessions.DeleteIfEmpty(quizID)
	}
}

// Snapshot returns the current session view for read-only consumers.
func (s *SessionService) Snapshot(_ context.Context, quizID string) (Snapshot, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return s.snapshotOf(session), nil
}

// Analytics exports the active mode's analytics record for one user.
func (s *SessionService) Analytics(_ context.Context, quizID, userID string) (map[string]any, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Plugin().AnalyticsData(session.modeContext(userID)), nil
}

// Progress exports the active mode's progress record for one user.
func (s *SessionService) Progress(_ context.Context, quizID, userID string) (map[string]any, error) {
	session, ok := s.sessions.Get(quizID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session.Plugin().ProgressData(session.modeContext(userID)), nil
}

func (s *SessionService) snapshotOf(session *Session) Snapshot {
	session.mu.RLock()
	defer session.mu.RUnlock()
	return session.snapshotLocked()
}

func (s *SessionService) fireSessionStart(ctx context.Context, session *Session, userID string) {
	hooks := session.Plugin().Hooks()
	if hooks.OnModeStart != nil {
		if err := hooks.OnModeStart(ctx, session.modeContext(userID)); err != nil {
			log.Printf("quiz %s: OnModeStart hook failed: %v", session.Quiz().ID, err)
		}
	}
	s.fireQuestionStart(ctx, session, userID, 0)
}

func (s *SessionService) fireQuestionStart(ctx context.Context, session *Session, userID string, index int) {
	hooks := session.Plugin().Hooks()
	questions := session.Quiz().Questions
	if hooks.OnQuestionStart == nil || index < 0 || index >= len(questions) {
		return
	}
	if err := hooks.OnQuestionStart(ctx, questions[index], index, session.modeContext(userID)); err != nil {
		log.Printf("quiz %s: OnQuestionStart hook failed: %v", session.Quiz().ID, err)
	}
}

func (s *SessionService) fireModeComplete(ctx context.Context, session *Session, userID string) {
	hooks := session.Plugin().Hooks()
	if hooks.OnModeComplete == nil {
		return
	}
	if err := hooks.OnModeComplete(ctx, session.results(userID), session.modeContext(userID)); err != nil {
		log.Printf("quiz %s: OnModeComplete hook failed: %v", session.Quiz().ID, err)
	}
}

// scoreSubmission validates the answer against quiz content and returns
// (correct, points). Points default to 1 when unset on the question.
func scoreSubmission(quiz domain.Quiz, submission domain.AnswerSubmission) (bool, int, error) {
	question, ok := findQuestion(quiz, submission.QuestionID)
	if !ok {
		return false, 0, domain.ErrQuestionNotFound
	}

	var selected *domain.Option
	for i := range question.Options {
		if question.Options[i].ID == submission.OptionID {
			selected = &question.Options[i]
			break
		}
	}
	if selected == nil {
		return false, 0, domain.ErrOptionNotFound
	}

	points := question.Points
	if points == 0 {
		points = 1
	}
	if selected.Correct {
		return true, points, nil
	}
	return false, points, nil
}

func findQuestion(quiz domain.Quiz, questionID string) (domain.Question, bool) {
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == questionID {
			return quiz.Questions[i], true
		}
	}
	return domain.Question{}, false
}
