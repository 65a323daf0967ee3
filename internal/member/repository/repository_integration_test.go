//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"smart_cycle_market/internal/member/domain"
	"smart_cycle_market/pkg/database"
	"smart_cycle_market/pkg/encrypt"
	"smart_cycle_market/pkg/logger"
	testtool "smart_cycle_market/pkg/test_tool"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	redisContainer, redisHost, redisPort, err := testtool.SetupContainer(ctx, testtool.RedisRequest())
	require.NoError(t, err)
	t.Cleanup(func() { _ = redisContainer.Terminate(ctx) })

	client, err := database.NewRedisClient("", nil, fmt.Sprintf("%s:%s", redisHost, redisPort), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	repo := NewSessionRepository(client)
	newSession := func(id, tokenStr string) domain.Session {
		return domain.Session{
			ID:        id,
			MemberID:  "m-1",
			TokenHash: encrypt.Fingerprint(tokenStr),
			CreatedAt: time.Now(),
			ExpiredAt: time.Now().Add(time.Hour),
		}
	}

	t.Run("rotate replaces the session once", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newSession("s1", "t1")))

		require.NoError(t, repo.Rotate(ctx, "m-1", "s1", encrypt.Fingerprint("t1"), newSession("s2", "t2")))

		_, err := repo.Find(ctx, "m-1", "s1")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		got, err := repo.Find(ctx, "m-1", "s2")
		require.NoError(t, err)
		assert.Equal(t, encrypt.Fingerprint("t2"), got.TokenHash)

		err = repo.Rotate(ctx, "m-1", "s1", encrypt.Fingerprint("t1"), newSession("s3", "t3"))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("rotate refuses another token", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newSession("s4", "t4")))

		err := repo.Rotate(ctx, "m-1", "s4", encrypt.Fingerprint("stolen"), newSession("s5", "t5"))
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		_, err = repo.Find(ctx, "m-1", "s4")
		assert.NoError(t, err)
	})

	t.Run("delete all", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, newSession("s6", "t6")))
		require.NoError(t, repo.DeleteAll(ctx, "m-1"))

		for _, id := range []string{"s2", "s4", "s6"} {
			_, err := repo.Find(ctx, "m-1", id)
			assert.ErrorIs(t, err, domain.ErrSessionNotFound)
		}
		assert.ErrorIs(t, repo.Delete(ctx, "m-1", "s6"), domain.ErrSessionNotFound)
	})

	t.Run("one-time tokens", func(t *testing.T) {
		tokens := NewOneTimeTokenRepository(database.NewRedisRepository[domain.OneTimeToken](client))
		require.NoError(t, tokens.Save(ctx, domain.PurposeVerification, "m-1", domain.OneTimeToken{Hash: "h"}, time.Minute))

		got, err := tokens.Find(ctx, domain.PurposeVerification, "m-1")
		require.NoError(t, err)
		assert.Equal(t, "h", got.Hash)

		_, err = tokens.Find(ctx, domain.PurposePasswordReset, "m-1")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)

		require.NoError(t, tokens.Delete(ctx, domain.PurposeVerification, "m-1"))
		_, err = tokens.Find(ctx, domain.PurposeVerification, "m-1")
		assert.ErrorIs(t, err, domain.ErrTokenNotFound)
	})
}

func TestMemberRepository(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	pgContainer, pgHost, pgPort, err := testtool.SetupContainer(ctx, testtool.PostgresRequest("market"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	var port int
	_, err = fmt.Sscan(pgPort, &port)
	require.NoError(t, err)

	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(pgHost, port, "market", "market", "market"),
		RetryCount:    5,
		RetryInterval: 2,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewMemberRepository(pool)
	require.NoError(t, repo.Migrate(ctx))

	ann := &domain.Member{MemberID: uuid.New().String(), Name: "Ann", Email: "ann@example.com", Password: "hash"}
	require.NoError(t, repo.CreateMember(ctx, ann))
	assert.NotZero(t, ann.ID)

	dup := &domain.Member{MemberID: uuid.New().String(), Name: "Ann2", Email: "ann@example.com", Password: "hash"}
	assert.ErrorIs(t, repo.CreateMember(ctx, dup), domain.ErrEmailTaken)

	require.NoError(t, repo.MarkVerified(ctx, ann.MemberID))
	require.NoError(t, repo.UpdateAvatar(ctx, ann.MemberID, "https://img/a.png", "avatars/a"))

	got, err := repo.FindByMember(ctx, &domain.MemberQuery{Email: &ann.Email})
	require.NoError(t, err)
	assert.True(t, got.Verified)
	assert.Equal(t, "https://img/a.png", got.AvatarURL)

	members, err := repo.FindByIDs(ctx, []string{ann.MemberID, "not-a-uuid"})
	require.NoError(t, err)
	assert.Len(t, members, 1)

	missing := uuid.New().String()
	_, err = repo.FindByMember(ctx, &domain.MemberQuery{MemberID: &missing})
	assert.ErrorIs(t, err, domain.ErrMemberNotFound)
	assert.ErrorIs(t, repo.UpdateName(ctx, missing, "Nobody"), domain.ErrMemberNotFound)
}
