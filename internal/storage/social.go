package storage

// socialPlatform describes one entry of the social link catalog.
type socialPlatform struct {
	title     string
	urlFormat string // fmt pattern taking the user's handle
}

// socialPlatforms maps a platform tag to its display title and profile URL
// pattern.
var socialPlatforms = map[string]socialPlatform{
	"instagram": {"Instagram", "https://instagram.com/%s"},
	"discord":   {"Discord", "https://discord.com/users/%s"},
	"twitter":   {"Twitter", "https://twitter.com/%s"},
	"tiktok":    {"TikTok", "https://tiktok.com/@%s"},
	"youtube":   {"YouTube", "https://youtube.com/%s"},
	"spotify":   {"Spotify", "https://open.spotify.com/user/%s"},
	"facebook":  {"Facebook", "https://facebook.com/%s"},
	"github":    {"GitHub", "https://github.com/%s"},
	"linkedin":  {"LinkedIn", "https://linkedin.com/in/%s"},
	"twitch":    {"Twitch", "https://twitch.tv/%s"},
	"reddit":    {"Reddit", "https://reddit.com/user/%s"},
	"snapchat":  {"Snapchat", "https://snapchat.com/add/%s"},
	"pinterest": {"Pinterest", "https://pinterest.com/%s"},
	"medium":    {"Medium", "https://medium.com/%s"},
	"patreon":   {"Patreon", "https://patreon.com/%s"},
	"behance":   {"Behance", "https://behance.net/%s"},
	"dribbble":  {"Dribbble", "https://dribbble.com/%s"},
	"mastodon":  {"Mastodon", "https://mastodon.social/@%s"},
	"vimeo":     {"Vimeo", "https://vimeo.com/%s"},
	"substack":  {"Substack", "https://%s.substack.com"},
}

// SocialPlatforms returns the catalog's platform tags, for validation and UI
// listings.
func SocialPlatforms() []string {
	tags := make([]string, 0, len(socialPlatforms))
	for tag := range socialPlatforms {
		tags = append(tags, tag)
	}
	return tags
}
