package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/ksid"
	"github.com/starzzy/wraith/internal/kvstore"
	"github.com/starzzy/wraith/internal/models"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// usersKey is the store entry holding the JSON array of all accounts.
const usersKey = "wraith_users"

// storedUser is the persisted form of an account. The password hash never
// leaves this package.
type storedUser struct {
	models.User
	PasswordHash string `json:"passwordHash"`
}

// AccountService manages accounts in the store entry "wraith_users":
// registration, password authentication with per-email rate limiting, and
// signed session tokens.
type AccountService struct {
	store     kvstore.Store
	logger    *slog.Logger
	jwtSecret []byte

	mu       sync.Mutex
	users    []*storedUser
	limiters map[string]*rate.Limiter
}

// NewAccountService creates the service and loads the stored account list.
// A corrupted users entry is logged and treated as empty.
func NewAccountService(store kvstore.Store, logger *slog.Logger, jwtSecret []byte) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AccountService{
		store:     store,
		logger:    logger,
		jwtSecret: jwtSecret,
		limiters:  map[string]*rate.Limiter{},
	}
	if raw, ok := store.Get(usersKey); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &s.users); err != nil {
			logger.Warn("stored accounts are corrupted, starting fresh", "err", err)
			s.users = nil
		}
	}
	return s
}

// Count returns the number of registered accounts.
func (s *AccountService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}

// Register creates an account. Email and username must be unused. The first
// account registered becomes the administrator.
func (s *AccountService) Register(email, username, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return nil, models.ErrEmailTaken
		}
		if u.Username == username {
			return nil, models.ErrUsernameTaken
		}
	}
	u := &storedUser{
		User: models.User{
			ID:       models.NewUserID(),
			Email:    email,
			Username: username,
			IsAdmin:  len(s.users) == 0,
			Badges:   []string{},
		},
		PasswordHash: string(hash),
	}
	s.users = append(s.users, u)
	if err := s.persistLocked(); err != nil {
		s.users = s.users[:len(s.users)-1]
		return nil, err
	}
	return u.User.Clone(), nil
}

// Authenticate verifies an email/password pair. Attempts per email are rate
// limited to 5 per minute; once exhausted the caller gets ErrTooManyAttempts
// without the password being checked.
func (s *AccountService) Authenticate(email, password string) (*models.User, error) {
	s.mu.Lock()
	lim, ok := s.limiters[email]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(5.0/60.0), 5)
		s.limiters[email] = lim
	}
	var found *storedUser
	for _, u := range s.users {
		if u.Email == email {
			found = u
			break
		}
	}
	s.mu.Unlock()
	if !lim.Allow() {
		return nil, models.ErrTooManyAttempts
	}
	if found == nil {
		// Burn comparable time so a missing account is not distinguishable
		// from a wrong password by latency.
		_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$0123456789012345678901uXJG1vF5pXYzS0mTbS5S0mTbS5S0mTa"), []byte(password))
		return nil, models.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(password)); err != nil {
		return nil, models.ErrInvalidCredentials
	}
	return found.User.Clone(), nil
}

// GetByID returns the account with the given id.
func (s *AccountService) GetByID(id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u.User.Clone(), nil
		}
	}
	return nil, models.ErrUserNotFound
}

// GetByUsername returns the account with the given username.
func (s *AccountService) GetByUsername(username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return u.User.Clone(), nil
		}
	}
	return nil, models.ErrUserNotFound
}

// ModifyUser applies fn to the named account and persists the list. ID, email
// and username are immutable; changes fn makes to them are discarded.
func (s *AccountService) ModifyUser(id string, fn func(*models.User)) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID != id {
			continue
		}
		updated := u.User.Clone()
		fn(updated)
		updated.ID = u.ID
		updated.Email = u.Email
		updated.Username = u.Username
		prev := u.User
		s.users[i].User = *updated
		if err := s.persistLocked(); err != nil {
			s.users[i].User = prev
			return nil, err
		}
		return updated.Clone(), nil
	}
	return nil, models.ErrUserNotFound
}

// NewSessionToken issues a signed session token for the account, valid for
// ttl.
func (s *AccountService) NewSessionToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        ksid.NewID().String(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken validates a session token and returns the account id it
// was issued for.
func (s *AccountService) VerifySessionToken(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	return claims.Subject, nil
}

// persistLocked writes the account list to the store. Callers hold the lock.
func (s *AccountService) persistLocked() error {
	data, err := json.Marshal(s.users)
	if err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	if err := s.store.Set(usersKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist accounts: %w", err)
	}
	return nil
}
