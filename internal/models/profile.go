// Package models defines the core data structures used throughout the
// application.
//
// JSON field names match the persisted layout of the original web app so
// existing store contents keep parsing.
package models

import (
	"maps"
	"slices"
)

// BackgroundType selects how the profile page background is drawn.
type BackgroundType string

// Background types.
const (
	BackgroundColor    BackgroundType = "color"
	BackgroundGradient BackgroundType = "gradient"
	BackgroundImage    BackgroundType = "image"
	BackgroundVideo    BackgroundType = "video"
)

// BackgroundEffect is an animated overlay effect rendered over the background.
type BackgroundEffect string

// Background effects.
const (
	EffectNone      BackgroundEffect = "none"
	EffectRain      BackgroundEffect = "rain"
	EffectSnow      BackgroundEffect = "snow"
	EffectNight     BackgroundEffect = "night"
	EffectStars     BackgroundEffect = "stars"
	EffectParticles BackgroundEffect = "particles"
	EffectConfetti  BackgroundEffect = "confetti"
	EffectMatrix    BackgroundEffect = "matrix"
	EffectFireflies BackgroundEffect = "fireflies"
)

// FontStyle selects the profile page font family.
type FontStyle string

// Font styles.
const (
	FontDefault FontStyle = "default"
	FontElegant FontStyle = "elegant"
	FontPlayful FontStyle = "playful"
	FontBold    FontStyle = "bold"
)

// Theme is the profile page color theme.
type Theme string

// Themes.
const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Profile is a user's public biolink page: appearance, links, media, and view
// statistics. Media fields hold either an inline payload or a reference to an
// externalized store entry; see MediaValue.
type Profile struct {
	ID                 string            `json:"id" jsonschema:"description=Unique profile identifier; never changes"`
	Username           string            `json:"username" jsonschema:"description=Owner username; unique and immutable"`
	DisplayName        string            `json:"displayName" jsonschema:"description=Name shown on the profile page"`
	Bio                string            `json:"bio" jsonschema:"description=Short free-form biography"`
	AvatarURL          MediaValue        `json:"avatarUrl" jsonschema:"description=Avatar image (inline data URL or storage reference)"`
	BackgroundType     BackgroundType    `json:"backgroundType" jsonschema:"description=Background rendering mode (color/gradient/image/video)"`
	BackgroundColor    string            `json:"backgroundColor" jsonschema:"description=Solid background color"`
	BackgroundGradient string            `json:"backgroundGradient" jsonschema:"description=CSS gradient for the background"`
	BackgroundImageURL MediaValue        `json:"backgroundImageUrl" jsonschema:"description=Background image (inline data URL or storage reference)"`
	BackgroundVideoURL MediaValue        `json:"backgroundVideoUrl" jsonschema:"description=Background video (inline data URL or storage reference)"`
	BackgroundEffect   BackgroundEffect  `json:"backgroundEffect" jsonschema:"description=Animated background overlay effect"`
	CardOpacity        float64           `json:"cardOpacity" jsonschema:"description=Profile card opacity (0-1)"`
	CardColor          string            `json:"cardColor" jsonschema:"description=Profile card color"`
	SoundEnabled       bool              `json:"soundEnabled" jsonschema:"description=Whether page audio autoplays"`
	SoundURL           MediaValue        `json:"soundUrl" jsonschema:"description=Page audio (inline data URL or storage reference)"`
	SongTitle          string            `json:"songTitle,omitempty" jsonschema:"description=Displayed song title"`
	SongArtist         string            `json:"songArtist,omitempty" jsonschema:"description=Displayed song artist"`
	SongCoverURL       MediaValue        `json:"songCoverUrl,omitzero" jsonschema:"description=Song cover art (inline data URL or storage reference)"`
	Links              []Link            `json:"links" jsonschema:"description=Ordered links shown on the page"`
	Badges             []string          `json:"badges" jsonschema:"description=Badge tags granted to the profile"`
	CustomBadges       []CustomBadge     `json:"customBadges" jsonschema:"description=User-defined badges with images"`
	CustomBadgeURL     MediaValue        `json:"customBadgeUrl,omitzero" jsonschema:"description=Legacy single custom badge image"`
	CustomBadgeName    string            `json:"customBadgeName,omitempty" jsonschema:"description=Legacy single custom badge name"`
	SocialLinks        map[string]string `json:"socialLinks" jsonschema:"description=Platform tag to handle for social links"`
	FontStyle          FontStyle         `json:"fontStyle" jsonschema:"description=Profile page font style"`
	Theme              Theme             `json:"theme" jsonschema:"description=Color theme (dark/light)"`
	Views              int               `json:"views" jsonschema:"description=Unique device view count"`
	ViewedDevices      []string          `json:"viewedDevices" jsonschema:"description=Device fingerprints already counted"`
	UsernameEffect     string            `json:"usernameEffect" jsonschema:"description=Animated effect applied to the username"`
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Links = slices.Clone(p.Links)
	c.Badges = slices.Clone(p.Badges)
	c.CustomBadges = slices.Clone(p.CustomBadges)
	c.ViewedDevices = slices.Clone(p.ViewedDevices)
	c.SocialLinks = maps.Clone(p.SocialLinks)
	return &c
}

// Link is a single entry on the profile page. Order in Profile.Links is
// display order.
type Link struct {
	ID       string     `json:"id" jsonschema:"description=Unique link identifier within the profile"`
	Title    string     `json:"title" jsonschema:"description=Link display title"`
	URL      string     `json:"url" jsonschema:"description=Target URL"`
	Enabled  bool       `json:"enabled" jsonschema:"description=Whether the link is shown"`
	Platform string     `json:"platform,omitempty" jsonschema:"description=Social platform tag when added via the catalog"`
	Icon     string     `json:"icon,omitempty" jsonschema:"description=Optional icon name"`
	ImageURL MediaValue `json:"imageUrl,omitzero" jsonschema:"description=Optional link image (inline data URL or storage reference)"`
}

// CustomBadge is a user-defined badge with its own image.
type CustomBadge struct {
	ID       string `json:"id" jsonschema:"description=Unique badge identifier within the profile"`
	Name     string `json:"name" jsonschema:"description=Badge display name"`
	ImageURL string `json:"imageUrl" jsonschema:"description=Badge image URL"`
}
