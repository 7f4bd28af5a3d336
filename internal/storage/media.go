// Media externalization and rehydration for profile records.
//
// Large inline payloads (data URLs for avatars, backgrounds, audio) are moved
// out of the main profiles entry into their own store entries and replaced by
// "storage:<key>" reference tokens; reads resolve the tokens back. Keys are
// derived deterministically from the profile id and field, so re-externalizing
// a field overwrites its previous entry instead of leaking a new one.

package storage

import (
	"fmt"
	"log/slog"

	"github.com/starzzy/wraith/internal/kvstore"
	"github.com/starzzy/wraith/internal/models"
)

const (
	// profilesKey is the store entry holding the JSON array of all profiles.
	profilesKey = "wraith_profiles"
	// mediaPrefix tags store entries holding externalized media payloads.
	mediaPrefix = "wraith_media_"
	// externalizeThreshold is the inline size in characters above which a
	// media payload is moved into its own store entry.
	externalizeThreshold = 1000
)

// mediaField locates one profile-level media-bearing field.
//
// profileMediaFields below is the closed set of such locations (link images
// are walked separately). A new media field must be added here or it is never
// externalized, rehydrated, or seen by the garbage collector.
type mediaField struct {
	disc string // key discriminator
	get  func(*models.Profile) models.MediaValue
	set  func(*models.Profile, models.MediaValue)
}

var profileMediaFields = []mediaField{
	{"avatar",
		func(p *models.Profile) models.MediaValue { return p.AvatarURL },
		func(p *models.Profile, v models.MediaValue) { p.AvatarURL = v }},
	{"bg_img",
		func(p *models.Profile) models.MediaValue { return p.BackgroundImageURL },
		func(p *models.Profile, v models.MediaValue) { p.BackgroundImageURL = v }},
	{"bg_video",
		func(p *models.Profile) models.MediaValue { return p.BackgroundVideoURL },
		func(p *models.Profile, v models.MediaValue) { p.BackgroundVideoURL = v }},
	{"sound",
		func(p *models.Profile) models.MediaValue { return p.SoundURL },
		func(p *models.Profile, v models.MediaValue) { p.SoundURL = v }},
	{"badge",
		func(p *models.Profile) models.MediaValue { return p.CustomBadgeURL },
		func(p *models.Profile, v models.MediaValue) { p.CustomBadgeURL = v }},
	{"song_cover",
		func(p *models.Profile) models.MediaValue { return p.SongCoverURL },
		func(p *models.Profile, v models.MediaValue) { p.SongCoverURL = v }},
}

// mediaKey returns the deterministic store key for a profile-level field.
func mediaKey(profileID, disc string) string {
	return mediaPrefix + profileID + "_" + disc
}

// linkMediaKey returns the deterministic store key for a link image.
func linkMediaKey(profileID, linkID string) string {
	return mediaPrefix + profileID + "_link_" + linkID + "_img"
}

// FieldFailure reports a single media field that could not be externalized.
// The field keeps its inline value; the save as a whole proceeds.
type FieldFailure struct {
	Field string // discriminator, e.g. "avatar" or "link_<id>_img"
	Key   string // store key the write was attempted under
	Err   error
}

func (f FieldFailure) Error() string {
	return fmt.Sprintf("failed to externalize %s: %v", f.Field, f.Err)
}

// Unwrap returns the underlying store error.
func (f FieldFailure) Unwrap() error {
	return f.Err
}

// externalize returns a copy of p safe to persist: every inline media payload
// over the threshold is written into its own store entry and replaced by a
// reference token. Already-referenced fields are left untouched, so the
// operation is idempotent.
//
// Failures are per-field and best-effort: a field that cannot be written
// (quota) keeps its inline value and is reported in the returned slice; one
// oversized field never blocks saving the rest of the profile.
func externalize(store kvstore.Store, logger *slog.Logger, p *models.Profile) (*models.Profile, []FieldFailure) {
	out := p.Clone()
	var failed []FieldFailure
	for _, f := range profileMediaFields {
		v := f.get(out)
		if !needsExternalize(v) {
			continue
		}
		key := mediaKey(out.ID, f.disc)
		if err := store.Set(key, v.Payload()); err != nil {
			logger.Warn("failed to externalize media field",
				"profile", out.ID, "field", f.disc, "size", len(v.Payload()), "err", err)
			failed = append(failed, FieldFailure{Field: f.disc, Key: key, Err: err})
			continue
		}
		f.set(out, models.Reference(key))
	}
	for i := range out.Links {
		v := out.Links[i].ImageURL
		if !needsExternalize(v) {
			continue
		}
		disc := "link_" + out.Links[i].ID + "_img"
		key := linkMediaKey(out.ID, out.Links[i].ID)
		if err := store.Set(key, v.Payload()); err != nil {
			logger.Warn("failed to externalize link image",
				"profile", out.ID, "link", out.Links[i].ID, "size", len(v.Payload()), "err", err)
			failed = append(failed, FieldFailure{Field: disc, Key: key, Err: err})
			continue
		}
		out.Links[i].ImageURL = models.Reference(key)
	}
	return out, failed
}

func needsExternalize(v models.MediaValue) bool {
	return !v.IsRef() && len(v.Payload()) > externalizeThreshold
}

// rehydrate returns a copy of p with every media reference resolved from the
// store. A reference with no backing entry is left as the unresolved token;
// consumers treat it as missing media. Read-only with respect to the store.
func rehydrate(store kvstore.Store, p *models.Profile) *models.Profile {
	out := p.Clone()
	for _, f := range profileMediaFields {
		if v := f.get(out); v.IsRef() {
			if payload, ok := store.Get(v.Key()); ok {
				f.set(out, models.Inline(payload))
			}
		}
	}
	for i := range out.Links {
		if v := out.Links[i].ImageURL; v.IsRef() {
			if payload, ok := store.Get(v.Key()); ok {
				out.Links[i].ImageURL = models.Inline(payload)
			}
		}
	}
	return out
}

// mediaKeysInUse collects every store key referenced by any media field of
// any profile in the list.
func mediaKeysInUse(profiles []*models.Profile) map[string]bool {
	used := map[string]bool{}
	for _, p := range profiles {
		for _, f := range profileMediaFields {
			if v := f.get(p); v.IsRef() {
				used[v.Key()] = true
			}
		}
		for i := range p.Links {
			if v := p.Links[i].ImageURL; v.IsRef() {
				used[v.Key()] = true
			}
		}
	}
	return used
}
