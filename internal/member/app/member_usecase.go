package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	maildomain "smart_cycle_market/internal/mail/domain"
	"smart_cycle_market/internal/member/domain"
	"smart_cycle_market/internal/member/repository"
	"smart_cycle_market/pkg/encrypt"
	errprocess "smart_cycle_market/pkg/err"
	"smart_cycle_market/pkg/imagehost"
	"smart_cycle_market/pkg/logger"
	"smart_cycle_market/pkg/token"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgUnauthorized  = "Unauthorized request!"
	msgSessionExpire = "Session expired!"
	msgInvalidToken  = "Invalid token!"
	msgResetDenied   = "Unauthorized access, invalid token!"
)

// MailQueue accepts mails for asynchronous delivery
type MailQueue interface {
	Enqueue(ctx context.Context, job maildomain.Job) error
}

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	SignUp(ctx context.Context, name, email, password string) (*domain.Member, error)
	Verify(ctx context.Context, memberID, tokenStr string) error
	SignIn(ctx context.Context, email, password string) (*domain.SignInResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.SignInResult, error)
	SignOut(ctx context.Context, memberID, refreshToken string) error
	Authenticate(ctx context.Context, accessToken string) (*domain.Member, error)
	Profile(ctx context.Context, memberID string) (*domain.Member, error)
	ResendVerification(ctx context.Context, memberID string) error
	ForgetPassword(ctx context.Context, email string) error
	VerifyResetToken(ctx context.Context, memberID, tokenStr string) error
	ResetPassword(ctx context.Context, memberID, tokenStr, password string) error
	UpdateName(ctx context.Context, memberID, name string) (*domain.Member, error)
	UpdateAvatar(ctx context.Context, memberID string, r io.Reader, fileName, contentType string) (*domain.Member, error)
	PublicProfile(ctx context.Context, memberID string) (*domain.PublicProfile, error)
}

// Options links and lifetimes used by the member use case
type Options struct {
	BaseURL         string
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessions   repository.SessionRepository
	oneTime    repository.OneTimeTokenRepository
	tokens     *token.Manager
	mail       MailQueue
	images     imagehost.Host
	opts       Options
	now        func() time.Time
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(
	memberRepo repository.MemberRepository,
	sessions repository.SessionRepository,
	oneTime repository.OneTimeTokenRepository,
	tokens *token.Manager,
	mail MailQueue,
	images imagehost.Host,
	opts Options,
) MemberUseCase {
	if opts.VerificationTTL <= 0 {
		opts.VerificationTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	return &memberUseCase{
		memberRepo: memberRepo,
		sessions:   sessions,
		oneTime:    oneTime,
		tokens:     tokens,
		mail:       mail,
		images:     images,
		opts:       opts,
		now:        time.Now,
	}
}

// SignUp create the member and mail a verification link
func (m *memberUseCase) SignUp(ctx context.Context, name, email, password string) (*domain.Member, error) {
	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return nil, errprocess.Internal(err)
	}

	member := domain.Member{
		MemberID: uuid.New().String(),
		Name:     name,
		Email:    strings.ToLower(email),
		Password: pw,
	}
	if err := m.memberRepo.CreateMember(ctx, &member); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, errprocess.Wrap(fiber.StatusConflict, "Email is already in use!", err)
		}
		return nil, errprocess.Internal(err)
	}
	logger.Log.Info("member signed up", zap.String("member_id", member.MemberID))

	// the account exists at this point, a lost mail can be resent through verify-token
	if err := m.sendOneTimeLink(ctx, &member, domain.PurposeVerification); err != nil {
		logger.Log.Error("verification mail not queued", zap.String("member_id", member.MemberID), zap.Error(err))
	}
	return &member, nil
}

// Verify consume the verification token
func (m *memberUseCase) Verify(ctx context.Context, memberID, tokenStr string) error {
	if err := m.checkOneTime(ctx, domain.PurposeVerification, memberID, tokenStr); err != nil {
		return errprocess.Wrap(fiber.StatusForbidden, msgInvalidToken, err)
	}
	if err := m.memberRepo.MarkVerified(ctx, memberID); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return errprocess.Wrap(fiber.StatusForbidden, msgInvalidToken, err)
		}
		return errprocess.Internal(err)
	}
	if err := m.oneTime.Delete(ctx, domain.PurposeVerification, memberID); err != nil {
		logger.Log.Warn("verification token not removed", zap.String("member_id", memberID), zap.Error(err))
	}
	return nil
}

// SignIn check credentials and open a new refresh session
func (m *memberUseCase) SignIn(ctx context.Context, email, password string) (*domain.SignInResult, error) {
	email = strings.ToLower(email)
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, errprocess.Wrap(fiber.StatusForbidden, "Email/Password mismatch!", err)
		}
		return nil, errprocess.Internal(err)
	}
	if err := member.IsPasswordMatch(password); err != nil {
		return nil, errprocess.Wrap(fiber.StatusForbidden, "Email/Password mismatch!", err)
	}

	session, tokens, err := m.issue(member.MemberID)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		return nil, errprocess.Internal(err)
	}

	return &domain.SignInResult{Profile: member.Profile(), Tokens: tokens}, nil
}

// Refresh rotate the refresh session; a token that no longer matches its session signs the member out everywhere
func (m *memberUseCase) Refresh(ctx context.Context, refreshToken string) (*domain.SignInResult, error) {
	claims, err := m.tokens.ParseKind(refreshToken, token.KindRefresh)
	if err != nil {
		return nil, errprocess.Wrap(fiber.StatusUnauthorized, msgUnauthorized, err)
	}
	memberID, sessionID := claims.MemberID, claims.SessionID()
	presented := encrypt.Fingerprint(refreshToken)

	current, err := m.sessions.Find(ctx, memberID, sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, errprocess.Internal(err)
	}
	if current == nil || current.TokenHash != presented {
		m.revokeAll(ctx, memberID, "refresh token reuse")
		return nil, errprocess.Unauthorized(msgUnauthorized)
	}

	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		return nil, errprocess.Wrap(fiber.StatusUnauthorized, msgUnauthorized, err)
	}

	next, tokens, err := m.issue(memberID)
	if err != nil {
		return nil, errprocess.Internal(err)
	}
	if err := m.sessions.Rotate(ctx, memberID, sessionID, presented, next); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			// lost a race against another rotation with the same token
			m.revokeAll(ctx, memberID, "concurrent refresh")
			return nil, errprocess.Unauthorized(msgUnauthorized)
		}
		return nil, errprocess.Internal(err)
	}

	return &domain.SignInResult{Profile: member.Profile(), Tokens: tokens}, nil
}

// SignOut close the session of refreshToken only
func (m *memberUseCase) SignOut(ctx context.Context, memberID, refreshToken string) error {
	claims, err := m.tokens.ParseKind(refreshToken, token.KindRefresh)
	if err != nil || claims.MemberID != memberID {
		return errprocess.Unauthorized(msgUnauthorized)
	}
	if err := m.sessions.Delete(ctx, memberID, claims.SessionID()); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return errprocess.Wrap(fiber.StatusUnauthorized, msgUnauthorized, err)
		}
		return errprocess.Internal(err)
	}
	return nil
}

// Authenticate resolve a bearer access token to a live member
func (m *memberUseCase) Authenticate(ctx context.Context, accessToken string) (*domain.Member, error) {
	if accessToken == "" {
		return nil, errprocess.Unauthorized(msgUnauthorized)
	}
	claims, err := m.tokens.ParseKind(accessToken, token.KindAccess)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, errprocess.Wrap(fiber.StatusUnauthorized, msgSessionExpire, err)
		}
		return nil, errprocess.Wrap(fiber.StatusUnauthorized, msgUnauthorized, err)
	}

	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &claims.MemberID})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, errprocess.Wrap(fiber.StatusUnauthorized, msgUnauthorized, err)
		}
		return nil, errprocess.Internal(err)
	}
	return member, nil
}

func (m *memberUseCase) Profile(ctx context.Context, memberID string) (*domain.Member, error) {
	return m.findMember(ctx, memberID)
}

// ResendVerification replace the verification token and mail it again
func (m *memberUseCase) ResendVerification(ctx context.Context, memberID string) error {
	member, err := m.findMember(ctx, memberID)
	if err != nil {
		return err
	}
	if member.Verified {
		return errprocess.Unprocessable("Account is already verified!")
	}
	if err := m.sendOneTimeLink(ctx, member, domain.PurposeVerification); err != nil {
		return errprocess.Internal(err)
	}
	return nil
}

// ForgetPassword mail a password reset link
func (m *memberUseCase) ForgetPassword(ctx context.Context, email string) error {
	email = strings.ToLower(email)
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{Email: &email})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return errprocess.Wrap(fiber.StatusNotFound, "Account not found!", err)
		}
		return errprocess.Internal(err)
	}
	if err := m.sendOneTimeLink(ctx, member, domain.PurposePasswordReset); err != nil {
		return errprocess.Internal(err)
	}
	return nil
}

func (m *memberUseCase) VerifyResetToken(ctx context.Context, memberID, tokenStr string) error {
	if err := m.checkOneTime(ctx, domain.PurposePasswordReset, memberID, tokenStr); err != nil {
		return errprocess.Wrap(fiber.StatusForbidden, msgResetDenied, err)
	}
	return nil
}

// ResetPassword set a new password, then sign out every device
func (m *memberUseCase) ResetPassword(ctx context.Context, memberID, tokenStr, password string) error {
	if err := m.VerifyResetToken(ctx, memberID, tokenStr); err != nil {
		return err
	}
	member, err := m.findMember(ctx, memberID)
	if err != nil {
		return err
	}
	if member.IsPasswordMatch(password) == nil {
		return errprocess.Unprocessable("The new password must be different!")
	}

	pw, err := encrypt.HashPassword(password)
	if err != nil {
		return errprocess.Internal(err)
	}
	if err := m.memberRepo.UpdatePassword(ctx, memberID, pw); err != nil {
		return errprocess.Internal(err)
	}

	if err := m.oneTime.Delete(ctx, domain.PurposePasswordReset, memberID); err != nil {
		logger.Log.Warn("reset token not removed", zap.String("member_id", memberID), zap.Error(err))
	}
	m.revokeAll(ctx, memberID, "password reset")

	job := maildomain.Job{Kind: maildomain.KindPasswordUpdated, To: member.Email, Name: member.Name}
	if err := m.mail.Enqueue(ctx, job); err != nil {
		logger.Log.Error("password updated mail not queued", zap.String("member_id", memberID), zap.Error(err))
	}
	return nil
}

func (m *memberUseCase) UpdateName(ctx context.Context, memberID, name string) (*domain.Member, error) {
	if err := m.memberRepo.UpdateName(ctx, memberID, name); err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, errprocess.Wrap(fiber.StatusNotFound, "User not found!", err)
		}
		return nil, errprocess.Internal(err)
	}
	return m.findMember(ctx, memberID)
}

// UpdateAvatar upload the new avatar first, the old one is destroyed only once the member points at the new one
func (m *memberUseCase) UpdateAvatar(ctx context.Context, memberID string, r io.Reader, fileName, contentType string) (*domain.Member, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errprocess.Unprocessable("Invalid image file!")
	}
	member, err := m.findMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	img, err := m.images.Upload(ctx, r, fileName, contentType, imagehost.AvatarThumb)
	if err != nil {
		if errors.Is(err, imagehost.ErrNotImage) {
			return nil, errprocess.Wrap(fiber.StatusUnprocessableEntity, "Invalid image file!", err)
		}
		return nil, errprocess.Internal(err)
	}
	if err := m.memberRepo.UpdateAvatar(ctx, memberID, img.URL, img.PublicID); err != nil {
		m.destroyImage(ctx, img.PublicID)
		return nil, errprocess.Internal(err)
	}

	if member.AvatarPublicID != "" {
		m.destroyImage(ctx, member.AvatarPublicID)
	}
	member.AvatarURL, member.AvatarPublicID = img.URL, img.PublicID
	return member, nil
}

func (m *memberUseCase) PublicProfile(ctx context.Context, memberID string) (*domain.PublicProfile, error) {
	member, err := m.findMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	profile := member.PublicProfile()
	return &profile, nil
}

func (m *memberUseCase) findMember(ctx context.Context, memberID string) (*domain.Member, error) {
	if _, err := uuid.Parse(memberID); err != nil {
		return nil, errprocess.Wrap(fiber.StatusNotFound, "User not found!", domain.ErrMemberNotFound)
	}
	member, err := m.memberRepo.FindByMember(ctx, &domain.MemberQuery{MemberID: &memberID})
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return nil, errprocess.Wrap(fiber.StatusNotFound, "User not found!", err)
		}
		return nil, errprocess.Internal(err)
	}
	return member, nil
}

// issue sign a token pair for a fresh session id
func (m *memberUseCase) issue(memberID string) (domain.Session, domain.Tokens, error) {
	sessionID := uuid.New().String()

	access, err := m.tokens.GenerateAccess(memberID)
	if err != nil {
		return domain.Session{}, domain.Tokens{}, err
	}
	refresh, err := m.tokens.GenerateRefresh(memberID, sessionID)
	if err != nil {
		return domain.Session{}, domain.Tokens{}, err
	}

	now := m.now()
	session := domain.Session{
		ID:        sessionID,
		MemberID:  memberID,
		TokenHash: encrypt.Fingerprint(refresh),
		CreatedAt: now,
		ExpiredAt: now.Add(m.tokens.RefreshTTL()),
	}
	return session, domain.Tokens{Access: access, Refresh: refresh}, nil
}

func (m *memberUseCase) revokeAll(ctx context.Context, memberID, reason string) {
	if err := m.sessions.DeleteAll(ctx, memberID); err != nil {
		logger.Log.Error("revoke sessions failed", zap.String("member_id", memberID), zap.String("reason", reason), zap.Error(err))
		return
	}
	logger.Log.Warn("all sessions revoked", zap.String("member_id", memberID), zap.String("reason", reason))
}

func (m *memberUseCase) destroyImage(ctx context.Context, publicID string) {
	if err := m.images.Destroy(ctx, publicID); err != nil {
		logger.Log.Warn("image not destroyed", zap.String("public_id", publicID), zap.Error(err))
	}
}

// sendOneTimeLink store a fresh hashed token for purpose and queue the mail carrying it
func (m *memberUseCase) sendOneTimeLink(ctx context.Context, member *domain.Member, purpose domain.TokenPurpose) error {
	raw, err := encrypt.GenerateToken()
	if err != nil {
		return err
	}
	hash, err := encrypt.HashPassword(raw)
	if err != nil {
		return err
	}

	ttl, kind, path := m.opts.VerificationTTL, maildomain.KindVerification, "/verify"
	if purpose == domain.PurposePasswordReset {
		ttl, kind, path = m.opts.ResetTTL, maildomain.KindResetPassword, "/reset-password"
	}

	if err := m.oneTime.Save(ctx, purpose, member.MemberID, domain.OneTimeToken{Hash: hash, CreatedAt: m.now()}, ttl); err != nil {
		return fmt.Errorf("save %s token: %w", purpose, err)
	}

	link := fmt.Sprintf("%s%s?%s", strings.TrimRight(m.opts.BaseURL, "/"), path, url.Values{
		"id":    {member.MemberID},
		"token": {raw},
	}.Encode())
	return m.mail.Enqueue(ctx, maildomain.Job{Kind: kind, To: member.Email, Name: member.Name, Link: link})
}

func (m *memberUseCase) checkOneTime(ctx context.Context, purpose domain.TokenPurpose, memberID, tokenStr string) error {
	if memberID == "" || tokenStr == "" {
		return domain.ErrTokenNotFound
	}
	stored, err := m.oneTime.Find(ctx, purpose, memberID)
	if err != nil {
		return err
	}
	return encrypt.CheckPassword(stored.Hash, tokenStr)
}
