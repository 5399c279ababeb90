package models

type GameType string

const (
	GameTypeWheel       GameType = "wheel"
	GameTypeCrashFlight GameType = "crash_flight"
)

func (g GameType) Valid() bool {
	return g == GameTypeWheel || g == GameTypeCrashFlight
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Outcome is the settled result of a single round. For CrashFlight,
// CrashPoint is the terminal multiplier the flight reached; on a win the
// cash-out happened at Multiplier, strictly below CrashPoint. For Wheel,
// Segment is the index of the segment the wheel stopped on.
type Outcome struct {
	Won        bool    `json:"won"`
	Multiplier float64 `json:"multiplier"`
	Payout     float64 `json:"payout"`
	CrashPoint float64 `json:"crash_point,omitempty"`
	Segment    int     `json:"segment,omitempty"`
	NewBalance float64 `json:"new_balance"`
}

type GameRound struct {
	ID         string     `json:"id" redis:"id"`
	AccountID  string     `json:"account_id" redis:"account_id"`
	GameType   GameType   `json:"game_type" redis:"game_type"`
	Stake      float64    `json:"stake" redis:"stake"`
	Difficulty Difficulty `json:"difficulty" redis:"difficulty"`
	Won        bool       `json:"won" redis:"won"`
	Multiplier float64    `json:"multiplier" redis:"multiplier"`
	Payout     float64    `json:"payout" redis:"payout"`
	CrashPoint float64    `json:"crash_point,omitempty" redis:"crash_point"`
	Segment    int        `json:"segment,omitempty" redis:"segment"`
	SettledAt  int64      `json:"settled_at" redis:"settled_at"`
}
