package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"rewards-miniapp-backend/internal/models"
)

// MemoryStore implements Directory, RequestStore, RoundStore and
// RateLimiter with plain maps. It backs the test suites and local runs
// without Redis.
type MemoryStore struct {
	mu         sync.RWMutex
	accounts   map[string]*models.Account
	byUsername map[string]string
	byRefCode  map[string]string
	requests   map[string]*models.FinancialRequest
	rounds     map[string][]*models.GameRound
	limits     map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts:   make(map[string]*models.Account),
		byUsername: make(map[string]string),
		byRefCode:  make(map[string]string),
		requests:   make(map[string]*models.FinancialRequest),
		rounds:     make(map[string][]*models.GameRound),
		limits:     make(map[string]*rateWindow),
	}
}

func (s *MemoryStore) CreateAccount(ctx context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[acct.Username]; exists {
		return models.ErrUsernameTaken
	}

	cp := *acct
	s.accounts[acct.ID] = &cp
	s.byUsername[acct.Username] = acct.ID
	s.byRefCode[acct.ReferralCode] = acct.ID
	return nil
}

func (s *MemoryStore) Account(ctx context.Context, id string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accountLocked(id)
}

func (s *MemoryStore) accountLocked(id string) (*models.Account, error) {
	acct, ok := s.accounts[id]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	cp := *acct
	return &cp, nil
}

func (s *MemoryStore) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return s.accountLocked(id)
}

func (s *MemoryStore) AccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byRefCode[code]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return s.accountLocked(id)
}

func (s *MemoryStore) UpdateAccount(ctx context.Context, acct *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[acct.ID]; !ok {
		return models.ErrAccountNotFound
	}
	cp := *acct
	s.accounts[acct.ID] = &cp
	return nil
}

func (s *MemoryStore) SaveRequest(ctx context.Context, req *models.FinancialRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *MemoryStore) Request(ctx context.Context, id string) (*models.FinancialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *MemoryStore) ResolveRequest(ctx context.Context, id string, status models.RequestStatus, reason string, resolvedAt int64) (*models.FinancialRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, models.ErrRequestNotFound
	}
	if req.Status != models.RequestStatusPending {
		return nil, models.ErrAlreadyResolved
	}

	req.Status = status
	req.Reason = reason
	req.ResolvedAt = resolvedAt

	cp := *req
	return &cp, nil
}

func (s *MemoryStore) ListPending(ctx context.Context, kind models.RequestKind) ([]*models.FinancialRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pending []*models.FinancialRequest
	for _, req := range s.requests {
		if req.Status != models.RequestStatusPending {
			continue
		}
		if kind != "" && req.Kind != kind {
			continue
		}
		cp := *req
		pending = append(pending, &cp)
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt == pending[j].CreatedAt {
			return pending[i].ID < pending[j].ID
		}
		return pending[i].CreatedAt < pending[j].CreatedAt
	})
	return pending, nil
}

func (s *MemoryStore) AppendRound(ctx context.Context, round *models.GameRound) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *round
	history := append([]*models.GameRound{&cp}, s.rounds[round.AccountID]...)
	if len(history) > MaxRoundHistory {
		history = history[:MaxRoundHistory]
	}
	s.rounds[round.AccountID] = history
	return nil
}

func (s *MemoryStore) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := accountID + ":" + action
	now := time.Now()

	w, ok := s.limits[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		s.limits[key] = w
	}
	w.count++

	return w.count <= limit, nil
}

func (s *MemoryStore) RecentRounds(ctx context.Context, accountID string) ([]*models.GameRound, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.rounds[accountID]
	out := make([]*models.GameRound, 0, len(history))
	for _, r := range history {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}
