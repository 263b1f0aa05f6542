package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"cryptocasino-backend/internal/models"
	"cryptocasino-backend/internal/services"
)

// fakeStore is an in-memory handlers.Store. Users pass through the same
// JSON round trip the real store uses, so fields that would be lost in
// Redis are lost here too.
type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*models.User
	sessions map[string]*models.Session
	captchas map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]*models.User),
		sessions: make(map[string]*models.Session),
		captchas: make(map[string]string),
	}
}

func cloneUser(u *models.User) *models.User {
	raw, err := json.Marshal(u)
	if err != nil {
		panic(err)
	}
	var cp models.User
	if err := json.Unmarshal(raw, &cp); err != nil {
		panic(err)
	}
	return &cp
}

func (s *fakeStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return services.ErrDuplicateUser
	}
	s.users[user.Email] = cloneUser(user)
	return nil
}

func (s *fakeStore) GetUser(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *fakeStore) UpdateUser(_ context.Context, email string, mutate func(*models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, services.ErrUserNotFound
	}
	cp := cloneUser(u)
	if err := mutate(cp); err != nil {
		return nil, err
	}
	cp.Version++
	s.users[email] = cp
	return cloneUser(cp), nil
}

func (s *fakeStore) SaveSession(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

func (s *fakeStore) GetSession(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeStore) DeleteSession(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

func (s *fakeStore) SaveCaptcha(_ context.Context, id, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captchas[id] = answer
	return nil
}

func (s *fakeStore) CheckCaptcha(_ context.Context, id, answer string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	expected, ok := s.captchas[id]
	if !ok {
		return false, nil
	}
	delete(s.captchas, id)
	return strings.EqualFold(strings.TrimSpace(answer), expected), nil
}

// fakeGateway records outbound calls.
type fakeGateway struct {
	mu          sync.Mutex
	createCalls int
	rateCalls   int
	sendCalls   int

	rate    float64
	rateErr error
	hosted  *services.HostedCharge
	sendErr error
}

func (g *fakeGateway) CreateCharge(_ context.Context, email, username string, amount models.Cents) (*services.HostedCharge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createCalls++
	if g.hosted == nil {
		return nil, errors.New("gateway unavailable")
	}
	return g.hosted, nil
}

func (g *fakeGateway) USDExchangeRate(_ context.Context, currency string) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rateCalls++
	if g.rateErr != nil {
		return 0, g.rateErr
	}
	return g.rate, nil
}

func (g *fakeGateway) SendMoney(_ context.Context, to, cryptoAmount, currency, idem string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sendCalls++
	return g.sendErr
}

func (g *fakeGateway) calls() (create, rate, send int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls, g.rateCalls, g.sendCalls
}
