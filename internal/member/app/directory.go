package app

import (
	"context"

	chatdomain "smart_cycle_market/internal/chat/domain"
	"smart_cycle_market/internal/member/repository"
	productdomain "smart_cycle_market/internal/product/domain"
)

// ProfileDirectory serves public member profiles to other modules
type ProfileDirectory struct {
	memberRepo repository.MemberRepository
}

// NewProfileDirectory create ProfileDirectory
func NewProfileDirectory(memberRepo repository.MemberRepository) *ProfileDirectory {
	return &ProfileDirectory{memberRepo: memberRepo}
}

// Profiles public profiles keyed by member id, unknown ids are left out
func (d *ProfileDirectory) Profiles(ctx context.Context, memberIDs []string) (map[string]chatdomain.Profile, error) {
	members, err := d.memberRepo.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]chatdomain.Profile, len(members))
	for _, m := range members {
		out[m.MemberID] = chatdomain.Profile{ID: m.MemberID, Name: m.Name, Avatar: m.AvatarURL}
	}
	return out, nil
}

// Sellers owner profiles for product views
func (d *ProfileDirectory) Sellers(ctx context.Context, memberIDs []string) (map[string]productdomain.Seller, error) {
	members, err := d.memberRepo.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]productdomain.Seller, len(members))
	for _, m := range members {
		out[m.MemberID] = productdomain.Seller{ID: m.MemberID, Name: m.Name, Avatar: m.AvatarURL}
	}
	return out, nil
}
