// Link and badge sub-operations, all read-modify-write atop Modify.

package storage

import (
	"fmt"
	"slices"

	"github.com/starzzy/wraith/internal/models"
)

// AddLink appends a link to the profile with a freshly generated id and
// returns the stored link. Order of insertion is display order.
func (s *ProfileService) AddLink(profileID string, link models.Link) (*models.Link, error) {
	link.ID = models.NewLinkID()
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		p.Links = append(p.Links, link)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateLink applies fn to the named link. The link id is immutable.
func (s *ProfileService) UpdateLink(profileID, linkID string, fn func(*models.Link)) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		for i := range p.Links {
			if p.Links[i].ID == linkID {
				fn(&p.Links[i])
				p.Links[i].ID = linkID
				return nil
			}
		}
		return models.ErrLinkNotFound
	})
	return err
}

// RemoveLink deletes the named link. Its externalized image, if any, is
// reclaimed by the garbage collector on the following save.
func (s *ProfileService) RemoveLink(profileID, linkID string) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		for i := range p.Links {
			if p.Links[i].ID == linkID {
				p.Links = slices.Delete(p.Links, i, i+1)
				return nil
			}
		}
		return models.ErrLinkNotFound
	})
	return err
}

// AddSocialLink appends a link for a well-known platform handle using the
// platform catalog, and records the handle in the profile's social links.
func (s *ProfileService) AddSocialLink(profileID, platform, handle string) (*models.Link, error) {
	def, ok := socialPlatforms[platform]
	if !ok {
		return nil, models.ErrUnknownPlatform
	}
	link := models.Link{
		ID:       models.NewLinkID(),
		Title:    def.title,
		URL:      fmt.Sprintf(def.urlFormat, handle),
		Enabled:  true,
		Platform: platform,
	}
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		p.Links = append(p.Links, link)
		if p.SocialLinks == nil {
			p.SocialLinks = map[string]string{}
		}
		p.SocialLinks[platform] = handle
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// AddBadge grants a badge tag to the profile. Granting a badge the profile
// already has is an error.
func (s *ProfileService) AddBadge(profileID, badge string) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		if slices.Contains(p.Badges, badge) {
			return models.ErrDuplicateBadge
		}
		p.Badges = append(p.Badges, badge)
		return nil
	})
	return err
}

// RemoveBadge revokes a badge tag. Removing an absent badge is a no-op.
func (s *ProfileService) RemoveBadge(profileID, badge string) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		p.Badges = slices.DeleteFunc(p.Badges, func(b string) bool { return b == badge })
		return nil
	})
	return err
}

// AddCustomBadge creates a user-defined badge with a generated id.
func (s *ProfileService) AddCustomBadge(profileID, name, imageURL string) (*models.CustomBadge, error) {
	badge := models.CustomBadge{ID: models.NewBadgeID(), Name: name, ImageURL: imageURL}
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		p.CustomBadges = append(p.CustomBadges, badge)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &badge, nil
}

// UpdateCustomBadge replaces the name and image of the named custom badge.
func (s *ProfileService) UpdateCustomBadge(profileID, badgeID, name, imageURL string) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		for i := range p.CustomBadges {
			if p.CustomBadges[i].ID == badgeID {
				p.CustomBadges[i].Name = name
				p.CustomBadges[i].ImageURL = imageURL
				return nil
			}
		}
		return models.ErrBadgeNotFound
	})
	return err
}

// RemoveCustomBadge deletes the named custom badge.
func (s *ProfileService) RemoveCustomBadge(profileID, badgeID string) error {
	_, err := s.Modify(profileID, func(p *models.Profile) error {
		for i := range p.CustomBadges {
			if p.CustomBadges[i].ID == badgeID {
				p.CustomBadges = slices.Delete(p.CustomBadges, i, i+1)
				return nil
			}
		}
		return models.ErrBadgeNotFound
	})
	return err
}
