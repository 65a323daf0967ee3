package domain

import (
	"testing"
	"time"

	"smart_cycle_market/pkg/encrypt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberPasswordMatch(t *testing.T) {
	hash, err := encrypt.HashPassword("Secret#123")
	require.NoError(t, err)
	member := Member{MemberID: "m-1", Email: "user@example.com", Password: hash}

	assert.NoError(t, member.IsPasswordMatch("Secret#123"), "should match correct password")
	assert.Error(t, member.IsPasswordMatch("wrongpass"), "should not match incorrect password")
}

func TestMemberProfiles(t *testing.T) {
	member := Member{MemberID: "m-1", Name: "Ann", Email: "ann@example.com", Verified: true, AvatarURL: "https://img/a.png"}

	assert.Equal(t, Profile{ID: "m-1", Email: "ann@example.com", Name: "Ann", Verified: true, Avatar: "https://img/a.png"}, member.Profile())
	assert.Equal(t, PublicProfile{ID: "m-1", Name: "Ann", Avatar: "https://img/a.png"}, member.PublicProfile())
}

func TestSessionExpiration(t *testing.T) {
	expired := Session{ID: "sid", MemberID: "m-1", ExpiredAt: time.Now().Add(-time.Minute)}
	live := Session{ID: "sid", MemberID: "m-1", ExpiredAt: time.Now().Add(time.Minute)}

	assert.True(t, expired.IsExpired(), "session should be expired")
	assert.False(t, live.IsExpired())
}
