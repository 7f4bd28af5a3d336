// Package storage provides the services backing the wraith profile store:
// profile persistence with media externalization and garbage collection,
// account management, device fingerprinting, configuration, and optional
// git-backed history of the data directory.
//
// All services share one flat kvstore.Store. ProfileService is the only
// component that issues writes affecting the media-key universe (garbage
// collection); everything else touches its own entries.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starzzy/wraith/internal/kvstore"
	"github.com/starzzy/wraith/internal/models"
)

// ProfileService owns the authoritative list of profile records, mirrored to
// the store entry "wraith_profiles". The in-memory list is kept in persisted
// form (media externalized); reads hand out rehydrated copies, so callers
// never see a raw reference token.
//
// Every save runs the same pipeline: collect garbage, externalize media,
// persist the full list. A quota failure triggers the emergency eviction pass
// and surfaces as an error; the in-memory records are kept so no data is lost
// and the caller can retry.
type ProfileService struct {
	store  kvstore.Store
	logger *slog.Logger

	mu       sync.RWMutex
	profiles []*models.Profile
	onSave   func()
}

// NewProfileService creates the service and loads the stored profile list.
// A corrupted profiles entry is logged and treated as empty (fresh start).
func NewProfileService(store kvstore.Store, logger *slog.Logger) *ProfileService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &ProfileService{store: store, logger: logger}
	s.profiles = s.loadOrEmpty()
	return s
}

func (s *ProfileService) loadOrEmpty() []*models.Profile {
	profiles, err := decodeStoredProfiles(s.store)
	if err != nil {
		s.logger.Warn("stored profiles are corrupted, starting fresh", "err", err)
		return nil
	}
	return profiles
}

// decodeStoredProfiles parses the persisted profile list from the store.
func decodeStoredProfiles(store kvstore.Store) ([]*models.Profile, error) {
	raw, ok := store.Get(profilesKey)
	if !ok || raw == "" {
		return nil, nil
	}
	var profiles []*models.Profile
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		return nil, fmt.Errorf("failed to parse stored profiles: %w", err)
	}
	return profiles, nil
}

// SetSaveHook registers a function invoked after every successful persist.
// Used to snapshot the data directory into history.
func (s *ProfileService) SetSaveHook(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSave = fn
}

// Reload discards the in-memory list and re-reads it from the store.
func (s *ProfileService) Reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = s.loadOrEmpty()
}

// Count returns the number of stored profiles.
func (s *ProfileService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

// Default returns a new unsaved profile with the standard defaults for the
// given owner. Badges are copied from the owner's account-level badges.
func (s *ProfileService) Default(username string, badges []string) *models.Profile {
	if username == "" {
		username = "user"
	}
	return &models.Profile{
		ID:                 models.NewProfileID(),
		Username:           username,
		DisplayName:        username,
		Bio:                "Welcome to my profile!",
		BackgroundType:     models.BackgroundGradient,
		BackgroundColor:    "#1a1a1a",
		BackgroundGradient: "linear-gradient(to bottom right, #1a1a1a, #2d1f3f)",
		BackgroundEffect:   models.EffectNone,
		CardOpacity:        0.7,
		CardColor:          "#000000",
		Links:              []models.Link{},
		Badges:             slices.Clone(badges),
		CustomBadges:       []models.CustomBadge{},
		SocialLinks:        map[string]string{},
		FontStyle:          models.FontDefault,
		Theme:              models.ThemeDark,
		ViewedDevices:      []string{},
		UsernameEffect:     "none",
	}
}

// Ensure returns the profile for username, creating and persisting the
// default record the first time the owner is seen. On a persistence failure
// the new record is kept in memory and returned alongside the error so the
// caller can retry the save.
func (s *ProfileService) Ensure(username string, badges []string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findUsernameLocked(username); p != nil {
		return rehydrate(s.store, p), nil
	}
	p := s.Default(username, badges)
	s.profiles = append(s.profiles, p)
	if err := s.saveLocked(); err != nil {
		return rehydrate(s.store, p), err
	}
	return rehydrate(s.store, p), nil
}

// GetByUsername returns a fully rehydrated copy of the named profile.
func (s *ProfileService) GetByUsername(username string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.findUsernameLocked(username)
	if p == nil {
		return nil, models.ErrProfileNotFound
	}
	return rehydrate(s.store, p), nil
}

// GetByID returns a fully rehydrated copy of the profile with the given id.
func (s *ProfileService) GetByID(id string) (*models.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.indexByIDLocked(id)
	if idx < 0 {
		return nil, models.ErrProfileNotFound
	}
	return rehydrate(s.store, s.profiles[idx]), nil
}

// All returns fully rehydrated copies of every profile, in storage order.
func (s *ProfileService) All() []*models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Profile, len(s.profiles))
	for i, p := range s.profiles {
		out[i] = rehydrate(s.store, p)
	}
	return out
}

// Modify applies fn to a fully rehydrated copy of the profile and persists
// the merged result. The returned profile reflects the stored state with all
// media resolved. ID and username are immutable; changes fn makes to them are
// discarded. If fn returns an error, nothing is mutated.
//
// On a persistence failure the merged record is kept in memory (rehydrated
// form is returned) and the error reports the failed save.
func (s *ProfileService) Modify(id string, fn func(*models.Profile) error) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexByIDLocked(id)
	if idx < 0 {
		return nil, models.ErrProfileNotFound
	}
	full := rehydrate(s.store, s.profiles[idx])
	if err := fn(full); err != nil {
		return nil, err
	}
	full.ID = id
	full.Username = s.profiles[idx].Username
	s.profiles[idx] = full
	if err := s.saveLocked(); err != nil {
		return rehydrate(s.store, s.profiles[idx]), err
	}
	return rehydrate(s.store, s.profiles[idx]), nil
}

// IncrementViewOnce counts one view of username's page from the given device
// fingerprint. Repeat views from a device already recorded for the profile do
// not increment; the returned bool reports whether a view was counted.
func (s *ProfileService) IncrementViewOnce(username, device string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findUsernameLocked(username)
	if p == nil {
		return false, models.ErrProfileNotFound
	}
	if slices.Contains(p.ViewedDevices, device) {
		return false, nil
	}
	p.Views++
	p.ViewedDevices = append(p.ViewedDevices, device)
	if err := s.saveLocked(); err != nil {
		return true, err
	}
	return true, nil
}

// CollectGarbage removes media entries not referenced by any stored profile.
func (s *ProfileService) CollectGarbage() {
	s.mu.Lock()
	defer s.mu.Unlock()
	collectGarbage(s.store, s.logger)
}

// saveLocked runs the save pipeline: collect garbage, externalize media,
// persist the full list. Callers hold the write lock.
//
// On a quota failure the emergency eviction pass runs and the error is
// returned; the in-memory records keep their inline payloads so nothing is
// lost. Per-field externalization failures are logged by the engine and do
// not abort the save.
func (s *ProfileService) saveLocked() error {
	collectGarbage(s.store, s.logger)
	persisted := make([]*models.Profile, len(s.profiles))
	for i, p := range s.profiles {
		out, failed := externalize(s.store, s.logger, p)
		persisted[i] = out
		if len(failed) > 0 {
			s.logger.Warn("profile saved with inline media", "profile", p.ID, "fields", len(failed))
		}
	}
	data, err := json.Marshal(persisted)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	if err := s.store.Set(profilesKey, string(data)); err != nil {
		if errors.Is(err, kvstore.ErrQuotaExceeded) {
			evictLegacyMedia(s.store, s.logger)
		}
		return fmt.Errorf("failed to persist profiles: %w", err)
	}
	s.profiles = persisted
	if s.onSave != nil {
		s.onSave()
	}
	return nil
}

func (s *ProfileService) findUsernameLocked(username string) *models.Profile {
	for _, p := range s.profiles {
		if p.Username == username {
			return p
		}
	}
	return nil
}

func (s *ProfileService) indexByIDLocked(id string) int {
	for i, p := range s.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}
