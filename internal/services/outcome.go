package services

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"rewards-miniapp-backend/internal/models"
	"rewards-miniapp-backend/internal/store"
)

const (
	MinStake      = 0.5
	MaxStakeWheel = 10
	MaxStakeCrash = 50

	// topMultiplier is the richest multiplier either game can award.
	topMultiplier = 10

	// thresholdEpsilon is the safety margin below the withdrawal
	// threshold that winnings are never allowed to reach.
	thresholdEpsilon = 5

	// Guaranteed-loss band for CrashFlight crash points.
	crashLossMin = 1.01
	crashLossMax = 1.19
)

// WheelSegments is the fixed wheel layout. A zero multiplier is a loss
// segment; the stake is forfeited when the wheel stops there.
var WheelSegments = []float64{0, 1.2, 0, 1.5, 0, 2, 0, 3, 0, 5, 0, 10}

// crashWinTiers are the cash-out multipliers a winning flight settles at.
var crashWinTiers = []float64{1.3, 1.5, 2, 3, 5, 10}

// DifficultySettings holds the base win probability per difficulty.
// Admins adjust them at runtime, so reads and writes are guarded.
type DifficultySettings struct {
	mu    sync.RWMutex
	probs map[models.Difficulty]float64
}

func NewDifficultySettings(easy, medium, hard float64) *DifficultySettings {
	return &DifficultySettings{
		probs: map[models.Difficulty]float64{
			models.DifficultyEasy:   easy,
			models.DifficultyMedium: medium,
			models.DifficultyHard:   hard,
		},
	}
}

func (d *DifficultySettings) WinProbability(difficulty models.Difficulty) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.probs[difficulty]
}

func (d *DifficultySettings) SetWinProbability(difficulty models.Difficulty, p float64) error {
	if !difficulty.Valid() || p < 0 || p > 1 {
		return models.ErrInvalidAmount
	}
	d.mu.Lock()
	d.probs[difficulty] = p
	d.mu.Unlock()
	return nil
}

func (d *DifficultySettings) Snapshot() map[models.Difficulty]float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make(map[models.Difficulty]float64, len(d.probs))
	for k, v := range d.probs {
		out[k] = v
	}
	return out
}

// OutcomeEngine decides every game round: whether the player wins, at what
// multiplier, and what the terminal crash point or wheel segment is. The
// one hard business rule it enforces is threshold containment: winnings
// alone may never push a balance across the plan's withdrawal threshold.
type OutcomeEngine struct {
	accounts *AccountService
	rounds   store.RoundStore
	settings *DifficultySettings
	clock    Clock

	mu  sync.Mutex
	rng *rand.Rand
}

// NewOutcomeEngine builds an engine. rng may be nil, in which case a
// time-seeded source is used; tests pass a fixed seed.
func NewOutcomeEngine(accounts *AccountService, rounds store.RoundStore, settings *DifficultySettings, clock Clock, rng *rand.Rand) *OutcomeEngine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &OutcomeEngine{
		accounts: accounts,
		rounds:   rounds,
		settings: settings,
		clock:    clock,
		rng:      rng,
	}
}

func (e *OutcomeEngine) random() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *OutcomeEngine) randomIndex(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

func maxStake(gameType models.GameType) float64 {
	if gameType == models.GameTypeWheel {
		return MaxStakeWheel
	}
	return MaxStakeCrash
}

// Play runs one round end to end: validates the stake, decides the
// outcome under the account's exclusive section and settles the balance.
func (e *OutcomeEngine) Play(ctx context.Context, accountID string, gameType models.GameType, stake float64, difficulty models.Difficulty) (*models.Outcome, error) {
	if !gameType.Valid() || !difficulty.Valid() {
		return nil, models.ErrInvalidStake
	}

	var outcome *models.Outcome
	_, err := e.accounts.WithAccount(ctx, accountID, func(a *models.Account) error {
		if stake < MinStake || stake > maxStake(gameType) || stake > a.Balance {
			return models.ErrInvalidStake
		}

		outcome = e.decide(a, gameType, stake, difficulty)

		if outcome.Won {
			win := stake * (outcome.Multiplier - 1)
			a.Balance += win
			a.TotalEarned += win
		} else {
			a.Balance -= stake
		}
		outcome.NewBalance = a.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}

	round := &models.GameRound{
		ID:         models.GenerateRoundID(),
		AccountID:  accountID,
		GameType:   gameType,
		Stake:      stake,
		Difficulty: difficulty,
		Won:        outcome.Won,
		Multiplier: outcome.Multiplier,
		Payout:     outcome.Payout,
		CrashPoint: outcome.CrashPoint,
		Segment:    outcome.Segment,
		SettledAt:  e.clock.Now().Unix(),
	}
	if err := e.rounds.AppendRound(ctx, round); err != nil {
		log.WithError(err).WithField("account", accountID).Error("failed to record round")
	}

	return outcome, nil
}

// decide picks win/lose and the multiplier. The account is already locked
// by the caller; only a.Balance and a.Plan are read.
func (e *OutcomeEngine) decide(a *models.Account, gameType models.GameType, stake float64, difficulty models.Difficulty) *models.Outcome {
	boundary := a.Plan.WithdrawalThreshold() - thresholdEpsilon

	// Containment only applies while the balance sits at or below the
	// boundary: winnings may not carry it across. An account already past
	// the boundary (low-threshold plans, prior deposits) plays unforced.
	constrained := a.Balance <= boundary

	worstCase := a.Balance + stake*topMultiplier - stake
	if constrained && worstCase >= boundary {
		return e.loss(gameType)
	}

	if e.random() >= e.settings.WinProbability(difficulty) {
		return e.loss(gameType)
	}

	multiplier, ok := e.pickWinMultiplier(gameType, a.Balance, stake, boundary, constrained)
	if !ok {
		// Every win tier would cross the boundary.
		return e.loss(gameType)
	}

	out := &models.Outcome{
		Won:        true,
		Multiplier: multiplier,
		Payout:     stake * (multiplier - 1),
	}
	switch gameType {
	case models.GameTypeCrashFlight:
		// The flight crashes somewhere past the cash-out point.
		out.CrashPoint = round2(multiplier + 0.01 + e.random()*multiplier)
	case models.GameTypeWheel:
		out.Segment = e.segmentFor(multiplier)
	}
	return out
}

// pickWinMultiplier draws a winning multiplier from the game's tiers,
// filtered so a constrained balance stays below the boundary.
func (e *OutcomeEngine) pickWinMultiplier(gameType models.GameType, balance, stake, boundary float64, constrained bool) (float64, bool) {
	tiers := crashWinTiers
	if gameType == models.GameTypeWheel {
		tiers = wheelWinTiers()
	}

	eligible := make([]float64, 0, len(tiers))
	for _, m := range tiers {
		if constrained && balance+stake*(m-1) >= boundary {
			continue
		}
		eligible = append(eligible, m)
	}
	if len(eligible) == 0 {
		return 0, false
	}
	return eligible[e.randomIndex(len(eligible))], true
}

// loss draws from the guaranteed-loss band: a crash point in
// [1.01, 1.19] for CrashFlight, a loss segment for Wheel.
func (e *OutcomeEngine) loss(gameType models.GameType) *models.Outcome {
	out := &models.Outcome{Won: false, Multiplier: 0, Payout: 0}
	switch gameType {
	case models.GameTypeCrashFlight:
		out.CrashPoint = round2(crashLossMin + e.random()*(crashLossMax-crashLossMin))
	case models.GameTypeWheel:
		lossSegments := wheelLossSegments()
		out.Segment = lossSegments[e.randomIndex(len(lossSegments))]
	}
	return out
}

// segmentFor maps a winning multiplier back to a wheel segment index.
func (e *OutcomeEngine) segmentFor(multiplier float64) int {
	for i, m := range WheelSegments {
		if m == multiplier {
			return i
		}
	}
	return 0
}

func wheelWinTiers() []float64 {
	tiers := make([]float64, 0, len(WheelSegments))
	for _, m := range WheelSegments {
		if m > 0 {
			tiers = append(tiers, m)
		}
	}
	return tiers
}

func wheelLossSegments() []int {
	segments := make([]int, 0, len(WheelSegments))
	for i, m := range WheelSegments {
		if m == 0 {
			segments = append(segments, i)
		}
	}
	return segments
}

func round2(v float64) float64 {
	return math.Floor(v*100) / 100
}
