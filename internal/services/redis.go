package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"cryptocasino-backend/internal/config"
	"cryptocasino-backend/internal/models"
)

// Store persists user records keyed by email, session records keyed by
// token id, and transient captcha answers. User mutations go through an
// optimistic WATCH/MULTI loop so concurrent webhook deliveries and
// bet/settlement requests against the same user cannot lose updates.
type Store struct {
	client *redis.Client
}

func NewStore(cfg *config.Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	key := fmt.Sprintf(KeyUser, user.Email)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	created, err := s.client.SetNX(ctx, key, data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	if !created {
		return ErrDuplicateUser
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, email string) (*models.User, error) {
	key := fmt.Sprintf(KeyUser, email)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// UpdateUser applies mutate to the latest stored version of the user
// record and writes it back, retrying when a concurrent writer touches
// the key mid-transaction. The mutated record is returned on success.
func (s *Store) UpdateUser(ctx context.Context, email string, mutate func(*models.User) error) (*models.User, error) {
	key := fmt.Sprintf(KeyUser, email)

	var updated *models.User

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}

		var user models.User
		if err := json.Unmarshal([]byte(data), &user); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}

		if err := mutate(&user); err != nil {
			return err
		}
		user.Version++

		buf, err := json.Marshal(&user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, 0)
			return nil
		})
		if err == nil {
			updated = &user
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrConflict
}

func (s *Store) SaveSession(ctx context.Context, session *models.Session) error {
	key := fmt.Sprintf(KeySession, session.ID)

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return s.client.Set(ctx, key, data, TTLSession).Err()
}

// GetSession resolves a session by id and refreshes its idle TTL.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	key := fmt.Sprintf(KeySession, id)

	data, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session.LastAccessed = time.Now()
	if refreshed, err := json.Marshal(&session); err == nil {
		s.client.Set(ctx, key, refreshed, TTLSession)
	}

	return &session, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	key := fmt.Sprintf(KeySession, id)
	return s.client.Del(ctx, key).Err()
}

func (s *Store) SaveCaptcha(ctx context.Context, id, answer string) error {
	key := fmt.Sprintf(KeyCaptcha, id)
	return s.client.Set(ctx, key, answer, TTLCaptcha).Err()
}

// CheckCaptcha verifies a captcha answer. The challenge is consumed on
// first check, right or wrong, so an answer cannot be brute-forced or
// replayed.
func (s *Store) CheckCaptcha(ctx context.Context, id, answer string) (bool, error) {
	key := fmt.Sprintf(KeyCaptcha, id)

	expected, err := s.client.GetDel(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check captcha: %w", err)
	}
	return strings.EqualFold(strings.TrimSpace(answer), expected), nil
}

func (s *Store) DeleteUser(ctx context.Context, email string) error {
	key := fmt.Sprintf(KeyUser, email)
	return s.client.Del(ctx, key).Err()
}
