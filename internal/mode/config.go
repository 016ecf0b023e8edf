package mode

// ID identifies a registered game mode.
type ID string

const (
	// ModeClassic is the default untimed solo mode with hints and explanations.
	ModeClassic ID = "classic"

	// ModeSpeedRound is the timed solo mode that awards bonus points for fast answers.
	ModeSpeedRound ID = "speed_round"

	// ModeMultiplayer is the competitive room-based mode.
	ModeMultiplayer ID = "multiplayer"
)

// Category groups modes by how many participants they expect.
type Category string

const (
	CategorySolo        Category = "solo"
	CategoryMultiplayer Category = "multiplayer"
)

// Settings holds the per-mode gameplay switches. TimeLimitSeconds is nil
// when the mode is untimed.
type Settings struct {
	ShowHints        bool `json:"showHints"`
	ShowExplanations bool `json:"showExplanations"`
	AllowSkip        bool `json:"allowSkip"`
	TimeLimitSeconds *int `json:"timeLimitSeconds"`
	AutoAdvance      bool `json:"autoAdvance"`
}

// Config is the immutable per-mode configuration record. It is built when
// the mode is registered and never mutated afterwards.
type Config struct {
	ID           ID       `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Category     Category `json:"category"`
	RequiresAuth bool     `json:"requiresAuth"`
	Settings     Settings `json:"settings"`
}

// TimeLimit returns a pointer suitable for Settings.TimeLimitSeconds.
func TimeLimit(seconds int) *int {
	return &seconds
}
