package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"rewards-miniapp-backend/internal/config"
	"rewards-miniapp-backend/internal/models"
)

// RedisStore implements Directory, RequestStore and RoundStore on a single
// Redis instance. Records are stored as JSON values with secondary keys for
// username and referral-code lookups.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) CreateAccount(ctx context.Context, acct *models.Account) error {
	usernameKey := fmt.Sprintf(KeyAccountUsername, acct.Username)

	claimed, err := s.client.SetNX(ctx, usernameKey, acct.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to claim username: %w", err)
	}
	if !claimed {
		return models.ErrUsernameTaken
	}

	if err := s.setAccount(ctx, acct); err != nil {
		return err
	}

	refKey := fmt.Sprintf(KeyAccountRefCode, acct.ReferralCode)
	if err := s.client.Set(ctx, refKey, acct.ID, 0).Err(); err != nil {
		return fmt.Errorf("failed to index referral code: %w", err)
	}
	return nil
}

func (s *RedisStore) setAccount(ctx context.Context, acct *models.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}
	key := fmt.Sprintf(KeyAccount, acct.ID)
	return s.client.Set(ctx, key, data, 0).Err()
}

func (s *RedisStore) Account(ctx context.Context, id string) (*models.Account, error) {
	key := fmt.Sprintf(KeyAccount, id)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	var acct models.Account
	if err := json.Unmarshal([]byte(data), &acct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &acct, nil
}

func (s *RedisStore) accountByIndex(ctx context.Context, indexKey string) (*models.Account, error) {
	id, err := s.client.Get(ctx, indexKey).Result()
	if err == redis.Nil {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account index: %w", err)
	}
	return s.Account(ctx, id)
}

func (s *RedisStore) AccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.accountByIndex(ctx, fmt.Sprintf(KeyAccountUsername, username))
}

func (s *RedisStore) AccountByReferralCode(ctx context.Context, code string) (*models.Account, error) {
	return s.accountByIndex(ctx, fmt.Sprintf(KeyAccountRefCode, code))
}

func (s *RedisStore) UpdateAccount(ctx context.Context, acct *models.Account) error {
	key := fmt.Sprintf(KeyAccount, acct.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if exists == 0 {
		return models.ErrAccountNotFound
	}
	return s.setAccount(ctx, acct)
}

func (s *RedisStore) SaveRequest(ctx context.Context, req *models.FinancialRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	key := fmt.Sprintf(KeyRequest, req.ID)
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save request: %w", err)
	}

	if req.Status == models.RequestStatusPending {
		if err := s.client.ZAdd(ctx, KeyPendingRequests, redis.Z{
			Score:  float64(req.CreatedAt),
			Member: req.ID,
		}).Err(); err != nil {
			return fmt.Errorf("failed to index pending request: %w", err)
		}
	}
	return nil
}

func (s *RedisStore) Request(ctx context.Context, id string) (*models.FinancialRequest, error) {
	key := fmt.Sprintf(KeyRequest, id)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, models.ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	var req models.FinancialRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}
	return &req, nil
}

// resolveRequestScript is the compare-and-swap on request status: the
// pending check, the status write and the pending-index removal happen in
// one script so two admins cannot both resolve the same request.
var resolveRequestScript = redis.NewScript(`
	local data = redis.call("GET", KEYS[1])
	if not data then
		return redis.error_reply("request not found")
	end

	local req = cjson.decode(data)
	if req.status ~= "pending" then
		return redis.error_reply("already resolved")
	end

	req.status = ARGV[1]
	if ARGV[2] ~= "" then
		req.reason = ARGV[2]
	end
	req.resolved_at = tonumber(ARGV[3])

	local updated = cjson.encode(req)
	redis.call("SET", KEYS[1], updated)
	redis.call("ZREM", KEYS[2], req.id)

	return updated
`)

func (s *RedisStore) ResolveRequest(ctx context.Context, id string, status models.RequestStatus, reason string, resolvedAt int64) (*models.FinancialRequest, error) {
	key := fmt.Sprintf(KeyRequest, id)

	data, err := resolveRequestScript.Run(ctx, s.client,
		[]string{key, KeyPendingRequests},
		string(status), reason, resolvedAt,
	).Text()
	if err != nil {
		if strings.Contains(err.Error(), "request not found") {
			return nil, models.ErrRequestNotFound
		}
		if strings.Contains(err.Error(), "already resolved") {
			return nil, models.ErrAlreadyResolved
		}
		return nil, fmt.Errorf("failed to resolve request: %w", err)
	}

	var req models.FinancialRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resolved request: %w", err)
	}
	return &req, nil
}

func (s *RedisStore) ListPending(ctx context.Context, kind models.RequestKind) ([]*models.FinancialRequest, error) {
	ids, err := s.client.ZRange(ctx, KeyPendingRequests, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	var pending []*models.FinancialRequest
	for _, id := range ids {
		req, err := s.Request(ctx, id)
		if err != nil {
			continue
		}
		if req.Status != models.RequestStatusPending {
			continue
		}
		if kind != "" && req.Kind != kind {
			continue
		}
		pending = append(pending, req)
	}
	return pending, nil
}

func (s *RedisStore) AppendRound(ctx context.Context, round *models.GameRound) error {
	data, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("failed to marshal round: %w", err)
	}

	key := fmt.Sprintf(KeyAccountRounds, round.AccountID)
	if err := s.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(round.SettledAt),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to append round: %w", err)
	}

	// Keep only the most recent entries.
	s.client.ZRemRangeByRank(ctx, key, 0, int64(-(MaxRoundHistory + 1)))
	return nil
}

func (s *RedisStore) CheckRateLimit(ctx context.Context, accountID, action string, limit int, window time.Duration) (bool, error) {
	key := fmt.Sprintf(KeyRateLimit, accountID, action)

	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count == 1 {
		s.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

func (s *RedisStore) RecentRounds(ctx context.Context, accountID string) ([]*models.GameRound, error) {
	key := fmt.Sprintf(KeyAccountRounds, accountID)

	entries, err := s.client.ZRevRange(ctx, key, 0, MaxRoundHistory-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get round history: %w", err)
	}

	rounds := make([]*models.GameRound, 0, len(entries))
	for _, entry := range entries {
		var round models.GameRound
		if err := json.Unmarshal([]byte(entry), &round); err != nil {
			continue
		}
		rounds = append(rounds, &round)
	}
	return rounds, nil
}
