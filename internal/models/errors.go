package models

import "errors"

// Error taxonomy shared across services. Store-level failures (quota,
// corruption) are defined by the kvstore package; these cover the domain.
var (
	// ErrProfileNotFound is returned for operations addressed to a profile
	// id or username that does not exist. No partial mutation is performed.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrLinkNotFound is returned when a link id does not exist on the profile.
	ErrLinkNotFound = errors.New("link not found")
	// ErrBadgeNotFound is returned when a custom badge id does not exist.
	ErrBadgeNotFound = errors.New("badge not found")
	// ErrDuplicateBadge is returned when granting a badge the profile already has.
	ErrDuplicateBadge = errors.New("profile already has this badge")
	// ErrUnknownPlatform is returned for a social platform outside the catalog.
	ErrUnknownPlatform = errors.New("unknown social platform")

	// ErrUserNotFound is returned when an account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when registering with an email already in use.
	ErrEmailTaken = errors.New("email already in use")
	// ErrUsernameTaken is returned when registering a username already in use.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrInvalidCredentials is returned when authentication fails.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTooManyAttempts is returned when login attempts are rate-limited.
	ErrTooManyAttempts = errors.New("too many login attempts, try again later")
)
