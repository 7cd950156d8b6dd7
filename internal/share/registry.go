package share

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for share password hashes.
	BcryptCost = 10
	// MinPasswordLength applies to new shares only.
	MinPasswordLength = 8
)

var (
	ErrNotFound     = errors.New("share not found")
	ErrExpired      = errors.New("share expired")
	ErrBadPassword  = errors.New("share password mismatch")
	ErrWeakPassword = fmt.Errorf("share password must be at least %d characters", MinPasswordLength)
)

// Link is a password-protected public link to the client view of a strategy.
type Link struct {
	Token      string    `json:"token"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	hash       []byte
}

type Option func(*Registry)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func WithCost(cost int) Option {
	return func(r *Registry) { r.cost = cost }
}

// Registry keeps share links in memory; links do not survive a restart.
type Registry struct {
	mu         sync.RWMutex
	links      map[string]Link
	defaultTTL time.Duration
	now        func() time.Time
	cost       int
}

func NewRegistry(defaultTTL time.Duration, opts ...Option) *Registry {
	r := &Registry{
		links:      map[string]Link{},
		defaultTTL: defaultTTL,
		now:        time.Now,
		cost:       BcryptCost,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create registers a link for strategyID. A non-positive ttl uses the
// registry default.
func (r *Registry) Create(strategyID, password string, ttl time.Duration) (Link, error) {
	if strings.TrimSpace(strategyID) == "" {
		return Link{}, errors.New("strategy id required")
	}
	if len(password) < MinPasswordLength {
		return Link{}, ErrWeakPassword
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.cost)
	if err != nil {
		return Link{}, fmt.Errorf("failed to hash share password: %w", err)
	}
	now := r.now().UTC()
	l := Link{
		Token:      uuid.New().String(),
		StrategyID: strategyID,
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
		hash:       hash,
	}
	r.mu.Lock()
	r.links[l.Token] = l
	r.mu.Unlock()
	return l, nil
}

// Resolve checks password against the link behind token. Expiry is checked
// before the password so an expired link never confirms a guess.
func (r *Registry) Resolve(token, password string) (Link, error) {
	if _, err := uuid.Parse(token); err != nil {
		return Link{}, ErrNotFound
	}
	r.mu.RLock()
	l, ok := r.links[token]
	r.mu.RUnlock()
	if !ok {
		return Link{}, ErrNotFound
	}
	if !r.now().Before(l.ExpiresAt) {
		return Link{}, ErrExpired
	}
	if err := bcrypt.CompareHashAndPassword(l.hash, []byte(password)); err != nil {
		return Link{}, ErrBadPassword
	}
	return l, nil
}

func (r *Registry) Revoke(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[token]; !ok {
		return ErrNotFound
	}
	delete(r.links, token)
	return nil
}

// Prune drops expired links and returns how many were removed.
func (r *Registry) Prune() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for token, l := range r.links {
		if !now.Before(l.ExpiresAt) {
			delete(r.links, token)
			n++
		}
	}
	return n
}

// List returns the live links for strategyID, oldest first.
func (r *Registry) List(strategyID string) []Link {
	now := r.now()
	r.mu.RLock()
	out := []Link{}
	for _, l := range r.links {
		if l.StrategyID == strategyID && now.Before(l.ExpiresAt) {
			out = append(out, l)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Token < out[j].Token
	})
	return out
}
