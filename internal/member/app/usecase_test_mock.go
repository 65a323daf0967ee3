package app

import (
	"context"
	"io"
	"time"

	maildomain "smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/internal/member/domain"
	"smart_cycle_market/pkg/imagehost"

	"github.com/stretchr/testify/mock"
)

// MockMemberRepository Mock MemberRepository
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockMemberRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	args := m.Called(ctx, memberQuery)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error) {
	args := m.Called(ctx, memberIDs)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepository) MarkVerified(ctx context.Context, memberID string) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdatePassword(ctx context.Context, memberID, hash string) error {
	args := m.Called(ctx, memberID, hash)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateName(ctx context.Context, memberID, name string) error {
	args := m.Called(ctx, memberID, name)
	return args.Error(0)
}

func (m *MockMemberRepository) UpdateAvatar(ctx context.Context, memberID, url, publicID string) error {
	args := m.Called(ctx, memberID, url, publicID)
	return args.Error(0)
}

// MockSessionRepository Mock SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Find(ctx context.Context, memberID, sessionID string) (*domain.Session, error) {
	args := m.Called(ctx, memberID, sessionID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSessionRepository) Rotate(ctx context.Context, memberID, oldSessionID, oldTokenHash string, next domain.Session) error {
	args := m.Called(ctx, memberID, oldSessionID, oldTokenHash, next)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, memberID, sessionID string) error {
	args := m.Called(ctx, memberID, sessionID)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteAll(ctx context.Context, memberID string) error {
	args := m.Called(ctx, memberID)
	return args.Error(0)
}

// MockOneTimeTokenRepository Mock OneTimeTokenRepository
type MockOneTimeTokenRepository struct {
	mock.Mock
}

func (m *MockOneTimeTokenRepository) Save(ctx context.Context, purpose domain.TokenPurpose, memberID string, token domain.OneTimeToken, ttl time.Duration) error {
	args := m.Called(ctx, purpose, memberID, token, ttl)
	return args.Error(0)
}

func (m *MockOneTimeTokenRepository) Find(ctx context.Context, purpose domain.TokenPurpose, memberID string) (*domain.OneTimeToken, error) {
	args := m.Called(ctx, purpose, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.OneTimeToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOneTimeTokenRepository) Delete(ctx context.Context, purpose domain.TokenPurpose, memberID string) error {
	args := m.Called(ctx, purpose, memberID)
	return args.Error(0)
}

// MockMailQueue Mock MailQueue
type MockMailQueue struct {
	mock.Mock
}

func (m *MockMailQueue) Enqueue(ctx context.Context, job maildomain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

// MockImageHost Mock imagehost.Host
type MockImageHost struct {
	mock.Mock
}

func (m *MockImageHost) Upload(ctx context.Context, r io.Reader, fileName, contentType string, t imagehost.Transform) (imagehost.Image, error) {
	args := m.Called(ctx, r, fileName, contentType, t)
	return args.Get(0).(imagehost.Image), args.Error(1)
}

func (m *MockImageHost) Destroy(ctx context.Context, publicID string) error {
	args := m.Called(ctx, publicID)
	return args.Error(0)
}
