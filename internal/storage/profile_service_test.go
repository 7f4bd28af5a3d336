package storage

import (
	"errors"
	"strings"
	"testing"

	"github.com/starzzy/wraith/internal/kvstore"
	"github.com/starzzy/wraith/internal/models"
)

func newTestService(t *testing.T) (*ProfileService, *kvstore.MemStore) {
	t.Helper()
	store := kvstore.NewMemStore(0)
	return NewProfileService(store, testLogger), store
}

func TestEnsure(t *testing.T) {
	t.Run("CreatesDefault", func(t *testing.T) {
		s, store := newTestService(t)
		p, err := s.Ensure("alice", []string{"verified"})
		if err != nil {
			t.Fatalf("Ensure() error = %v", err)
		}
		if p.Username != "alice" || p.DisplayName != "alice" {
			t.Errorf("profile = %q/%q", p.Username, p.DisplayName)
		}
		if p.Bio != "Welcome to my profile!" {
			t.Errorf("Bio = %q", p.Bio)
		}
		if !strings.HasPrefix(p.ID, "profile-") {
			t.Errorf("ID = %q", p.ID)
		}
		if len(p.Badges) != 1 || p.Badges[0] != "verified" {
			t.Errorf("Badges = %v", p.Badges)
		}
		if _, ok := store.Get(profilesKey); !ok {
			t.Error("profile was not persisted")
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		s, _ := newTestService(t)
		p1, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		p2, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		if p1.ID != p2.ID {
			t.Errorf("second Ensure created a new profile: %q vs %q", p1.ID, p2.ID)
		}
		if s.Count() != 1 {
			t.Errorf("Count() = %d, want 1", s.Count())
		}
	})
}

func TestSaveExternalizesAndReloadsResolved(t *testing.T) {
	s, store := newTestService(t)
	p, err := s.Ensure("alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	big := strings.Repeat("a", 1500)
	if _, err := s.Modify(p.ID, func(p *models.Profile) error {
		p.AvatarURL = models.Inline(big)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	// The persisted list holds a reference token, not the payload.
	raw, _ := store.Get(profilesKey)
	wantKey := mediaKey(p.ID, "avatar")
	if !strings.Contains(raw, models.RefPrefix+wantKey) {
		t.Error("persisted profiles do not reference the media entry")
	}
	if strings.Contains(raw, big) {
		t.Error("large payload persisted inline")
	}
	if v, _ := store.Get(wantKey); v != big {
		t.Error("media entry missing or wrong")
	}

	// A fresh service over the same store reads the payload back.
	s2 := NewProfileService(store, testLogger)
	got, err := s2.GetByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.AvatarURL.IsRef() || got.AvatarURL.Payload() != big {
		t.Error("reloaded profile did not resolve the media reference")
	}
}

func TestModify(t *testing.T) {
	t.Run("NotFound", func(t *testing.T) {
		s, store := newTestService(t)
		if _, err := s.Ensure("alice", nil); err != nil {
			t.Fatal(err)
		}
		before, _ := store.Get(profilesKey)
		_, err := s.Modify("profile-0", func(p *models.Profile) error { return nil })
		if !errors.Is(err, models.ErrProfileNotFound) {
			t.Fatalf("error = %v, want ErrProfileNotFound", err)
		}
		if after, _ := store.Get(profilesKey); after != before {
			t.Error("store changed on a failed modify")
		}
	})

	t.Run("IDAndUsernameImmutable", func(t *testing.T) {
		s, _ := newTestService(t)
		p, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := s.Modify(p.ID, func(p *models.Profile) error {
			p.ID = "profile-hacked"
			p.Username = "mallory"
			p.Bio = "new bio"
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != p.ID || got.Username != "alice" {
			t.Errorf("identity changed: %q/%q", got.ID, got.Username)
		}
		if got.Bio != "new bio" {
			t.Errorf("Bio = %q", got.Bio)
		}
	})

	t.Run("CallbackErrorAborts", func(t *testing.T) {
		s, _ := newTestService(t)
		p, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		boom := errors.New("boom")
		if _, err := s.Modify(p.ID, func(p *models.Profile) error {
			p.Bio = "changed"
			return boom
		}); !errors.Is(err, boom) {
			t.Fatalf("error = %v, want boom", err)
		}
		got, err := s.GetByID(p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Bio != "Welcome to my profile!" {
			t.Error("failed modify leaked changes")
		}
	})

	t.Run("CallbackSeesResolvedMedia", func(t *testing.T) {
		s, _ := newTestService(t)
		p, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		big := strings.Repeat("a", 1500)
		if _, err := s.Modify(p.ID, func(p *models.Profile) error {
			p.AvatarURL = models.Inline(big)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Modify(p.ID, func(p *models.Profile) error {
			if p.AvatarURL.IsRef() {
				t.Error("callback handed a reference token instead of the payload")
			}
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	})
}

func TestClearedMediaIsCollected(t *testing.T) {
	s, store := newTestService(t)
	p, err := s.Ensure("alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	key := mediaKey(p.ID, "avatar")
	if _, err := s.Modify(p.ID, func(p *models.Profile) error {
		p.AvatarURL = models.Inline(strings.Repeat("a", 1500))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if _, ok := store.Get(key); !ok {
		t.Fatal("media entry not created")
	}
	if _, err := s.Modify(p.ID, func(p *models.Profile) error {
		p.AvatarURL = models.MediaValue{}
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	s.CollectGarbage()
	if _, ok := store.Get(key); ok {
		t.Error("cleared media entry survived garbage collection")
	}
}

func TestRepeatedSavesDoNotLeak(t *testing.T) {
	s, store := newTestService(t)
	p, err := s.Ensure("alice", nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range 5 {
		payload := strings.Repeat(string(rune('a'+i)), 1500)
		if _, err := s.Modify(p.ID, func(p *models.Profile) error {
			p.AvatarURL = models.Inline(payload)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}
	count := 0
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, mediaPrefix) {
			count++
		}
	}
	if count != 1 {
		t.Errorf("media entries = %d after repeated saves, want 1", count)
	}
}

func TestLinks(t *testing.T) {
	t.Run("OrderAndUniqueIDs", func(t *testing.T) {
		s, _ := newTestService(t)
		p, err := s.Ensure("alice", nil)
		if err != nil {
			t.Fatal(err)
		}
		titles := []string{"first", "second", "third"}
		seen := map[string]bool{}
		for _, title := range titles {
			l, err := s.AddLink(p.ID, models.Link{Title: title, URL: "https://example.com", Enabled: true})
			if err != nil {
				t.Fatalf("AddLink(%q) error = %v", title, err)
			}
			if seen[l.ID] {
				t.Fatalf("duplicate link id %q", l.ID)
			}
			seen[l.ID] = true
		}
		got, err := s.GetByID(p.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.Links) != 3 {
			t.Fatalf("len(Links) = %d, want 3", len(got.Links))
		}
		for i, title := range titles {
			if got.Links[i].Title != title {
				t.Errorf("Links[%d].Title = %q, want %q", i, got.Links[i].Title, title)
			}
		}
	})

	t.Run("UpdateKeepsID", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		l, err := s.AddLink(p.ID, models.Link{Title: "old"})
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateLink(p.ID, l.ID, func(l *models.Link) {
			l.ID = "link-forged"
			l.Title = "new"
		}); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetByID(p.ID)
		if got.Links[0].ID != l.ID || got.Links[0].Title != "new" {
			t.Errorf("link = %+v", got.Links[0])
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		err := s.UpdateLink(p.ID, "link-0", func(l *models.Link) {})
		if !errors.Is(err, models.ErrLinkNotFound) {
			t.Fatalf("error = %v, want ErrLinkNotFound", err)
		}
	})

	t.Run("RemoveThenCollectFreesImage", func(t *testing.T) {
		s, store := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		l, err := s.AddLink(p.ID, models.Link{
			Title:    "pic",
			ImageURL: models.Inline(strings.Repeat("z", 1500)),
		})
		if err != nil {
			t.Fatal(err)
		}
		key := linkMediaKey(p.ID, l.ID)
		if _, ok := store.Get(key); !ok {
			t.Fatal("link image not externalized")
		}
		if err := s.RemoveLink(p.ID, l.ID); err != nil {
			t.Fatal(err)
		}
		s.CollectGarbage()
		if _, ok := store.Get(key); ok {
			t.Error("removed link's image survived garbage collection")
		}
	})
}

func TestSocialLinks(t *testing.T) {
	t.Run("KnownPlatform", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		l, err := s.AddSocialLink(p.ID, "github", "alice")
		if err != nil {
			t.Fatalf("AddSocialLink() error = %v", err)
		}
		if l.URL != "https://github.com/alice" || l.Title != "GitHub" {
			t.Errorf("link = %+v", l)
		}
		got, _ := s.GetByID(p.ID)
		if got.SocialLinks["github"] != "alice" {
			t.Errorf("SocialLinks = %v", got.SocialLinks)
		}
	})

	t.Run("HandleInHost", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		l, err := s.AddSocialLink(p.ID, "substack", "alice")
		if err != nil {
			t.Fatal(err)
		}
		if l.URL != "https://alice.substack.com" {
			t.Errorf("URL = %q", l.URL)
		}
	})

	t.Run("UnknownPlatform", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		if _, err := s.AddSocialLink(p.ID, "myspace", "alice"); !errors.Is(err, models.ErrUnknownPlatform) {
			t.Fatalf("error = %v, want ErrUnknownPlatform", err)
		}
	})
}

func TestBadges(t *testing.T) {
	t.Run("AddDuplicate", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		if err := s.AddBadge(p.ID, "verified"); err != nil {
			t.Fatal(err)
		}
		if err := s.AddBadge(p.ID, "verified"); !errors.Is(err, models.ErrDuplicateBadge) {
			t.Fatalf("error = %v, want ErrDuplicateBadge", err)
		}
	})

	t.Run("RemoveAbsentIsNoop", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		if err := s.RemoveBadge(p.ID, "nope"); err != nil {
			t.Fatalf("RemoveBadge() error = %v", err)
		}
	})

	t.Run("CustomBadgeLifecycle", func(t *testing.T) {
		s, _ := newTestService(t)
		p, _ := s.Ensure("alice", nil)
		b, err := s.AddCustomBadge(p.ID, "founder", "https://example.com/b.png")
		if err != nil {
			t.Fatal(err)
		}
		if err := s.UpdateCustomBadge(p.ID, b.ID, "og", "https://example.com/og.png"); err != nil {
			t.Fatal(err)
		}
		got, _ := s.GetByID(p.ID)
		if got.CustomBadges[0].Name != "og" {
			t.Errorf("badge = %+v", got.CustomBadges[0])
		}
		if err := s.RemoveCustomBadge(p.ID, b.ID); err != nil {
			t.Fatal(err)
		}
		if err := s.RemoveCustomBadge(p.ID, b.ID); !errors.Is(err, models.ErrBadgeNotFound) {
			t.Fatalf("error = %v, want ErrBadgeNotFound", err)
		}
	})
}

func TestIncrementViewOnce(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Ensure("alice", nil); err != nil {
		t.Fatal(err)
	}
	counted, err := s.IncrementViewOnce("alice", "device_1")
	if err != nil || !counted {
		t.Fatalf("first view counted = %v, err = %v", counted, err)
	}
	counted, err = s.IncrementViewOnce("alice", "device_1")
	if err != nil || counted {
		t.Fatalf("repeat view counted = %v, err = %v", counted, err)
	}
	counted, err = s.IncrementViewOnce("alice", "device_2")
	if err != nil || !counted {
		t.Fatalf("second device counted = %v, err = %v", counted, err)
	}
	got, err := s.GetByUsername("alice")
	if err != nil {
		t.Fatal(err)
	}
	if got.Views != 2 {
		t.Errorf("Views = %d, want 2", got.Views)
	}
	if _, err := s.IncrementViewOnce("nobody", "device_1"); !errors.Is(err, models.ErrProfileNotFound) {
		t.Fatalf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestQuotaFailureKeepsDataInMemory(t *testing.T) {
	store := kvstore.NewMemStore(100)
	s := NewProfileService(store, testLogger)
	p, err := s.Ensure("alice", nil)
	if !errors.Is(err, kvstore.ErrQuotaExceeded) {
		t.Fatalf("error = %v, want ErrQuotaExceeded", err)
	}
	if p == nil {
		t.Fatal("profile lost on quota failure")
	}
	got, err := s.GetByUsername("alice")
	if err != nil {
		t.Fatalf("in-memory profile gone after failed save: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %q, want %q", got.ID, p.ID)
	}
}

func TestCorruptedProfilesStartFresh(t *testing.T) {
	store := kvstore.NewMemStore(0)
	if err := store.Set(profilesKey, "{corrupt"); err != nil {
		t.Fatal(err)
	}
	s := NewProfileService(store, testLogger)
	if s.Count() != 0 {
		t.Errorf("Count() = %d, want 0", s.Count())
	}
}

func TestSaveHook(t *testing.T) {
	s, _ := newTestService(t)
	calls := 0
	s.SetSaveHook(func() { calls++ })
	if _, err := s.Ensure("alice", nil); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("hook calls = %d, want 1", calls)
	}
}
