package domain

import "time"

// Participant represents a quiz participant within one live session.
type Participant struct {
	UserID        string
	DisplayName   string
	Score         int
	Ready         bool
	CurrentAnswer *string
	LastUpdated   time.Time
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Ready       bool   `json:"ready"`
}

// Leaderboard captures the ordered scoreboard for a quiz session.
type Leaderboard struct {
	QuizID    string             `json:"quizId"`
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AnswerSubmission models the scoring signal from clients. TimeSpent is
// optional; when zero the engine measures wall-clock time since the
// question started.
type AnswerSubmission struct {
	QuestionID string
	OptionID   string
	TimeSpent  time.Duration
}

// AnswerRecord is the engine's read-only record of one scored answer.
type AnswerRecord struct {
	QuestionID string        `json:"questionId"`
	OptionID   string        `json:"optionId"`
	Correct    bool          `json:"correct"`
	TimeSpent  time.Duration `json:"timeSpent"`
}

// AnswerResult summarizes the outcome of a submission for a single user.
type AnswerResult struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Awarded     int    `json:"awarded"`
	TotalScore  int    `json:"totalScore"`
	Explanation string `json:"explanation,omitempty"`
}

// Option represents a possible answer for a question.
type Option struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question models an MCQ question with exactly one correct option.
// Hint and Explanation feed modes whose settings expose them.
type Question struct {
	ID          string   `json:"id"`
	Prompt      string   `json:"prompt"`
	Hint        string   `json:"hint,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Options     []Option `json:"options"`
	Points      int      `json:"points"` // defaults to 1 if zero
}

// Quiz is a collection of questions on one civics topic.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title,omitempty"`
	Questions []Question `json:"questions"`
}
