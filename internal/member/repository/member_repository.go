package repository

import (
	"context"
	"errors"
	"fmt"

	"smart_cycle_market/internal/member/domain"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

const memberSchema = `
CREATE TABLE IF NOT EXISTS member (
	id               BIGSERIAL PRIMARY KEY,
	member_id        UUID         NOT NULL UNIQUE,
	name             VARCHAR(64)  NOT NULL,
	email            VARCHAR(255) NOT NULL UNIQUE,
	password         VARCHAR(255) NOT NULL,
	verified         BOOLEAN      NOT NULL DEFAULT FALSE,
	avatar_url       TEXT         NOT NULL DEFAULT '',
	avatar_public_id TEXT         NOT NULL DEFAULT '',
	status           SMALLINT     NOT NULL DEFAULT 0,
	created_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ  NOT NULL DEFAULT NOW()
)`

const memberColumns = "id, member_id, name, email, password, verified, avatar_url, avatar_public_id, status, created_at, updated_at"

// MemberRepository definition get Member info
type MemberRepository interface {
	Migrate(ctx context.Context) error
	CreateMember(ctx context.Context, member *domain.Member) error
	FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error)
	FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error)
	MarkVerified(ctx context.Context, memberID string) error
	UpdatePassword(ctx context.Context, memberID, hash string) error
	UpdateName(ctx context.Context, memberID, name string) error
	UpdateAvatar(ctx context.Context, memberID, url, publicID string) error
}

type memberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *pgxpool.Pool) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) Migrate(ctx context.Context) error {
	_, err := r.db.Exec(ctx, memberSchema)
	return err
}

func (r *memberRepository) CreateMember(ctx context.Context, member *domain.Member) error {
	row := r.db.QueryRow(ctx,
		"INSERT INTO member(member_id, name, email, password) VALUES ($1, $2, $3, $4) RETURNING id, created_at, updated_at",
		member.MemberID, member.Name, member.Email, member.Password,
	)
	err := row.Scan(&member.ID, &member.CreatedAt, &member.UpdatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *memberRepository) FindByMember(ctx context.Context, memberQuery *domain.MemberQuery) (*domain.Member, error) {
	queryStr := "SELECT " + memberColumns + " FROM member WHERE 1=1"
	params := []interface{}{}
	paramCount := 1

	if memberQuery.Email != nil {
		queryStr += fmt.Sprintf(" AND email = $%d", paramCount)
		params = append(params, *memberQuery.Email)
		paramCount++
	}
	if memberQuery.MemberID != nil {
		queryStr += fmt.Sprintf(" AND member_id = $%d", paramCount)
		params = append(params, *memberQuery.MemberID)
		paramCount++
	}
	if memberQuery.ID != nil {
		queryStr += fmt.Sprintf(" AND id = $%d", paramCount)
		params = append(params, *memberQuery.ID)
		paramCount++
	}
	if paramCount == 1 {
		return nil, fmt.Errorf("member query without conditions")
	}

	member, err := scanMember(r.db.QueryRow(ctx, queryStr, params...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (r *memberRepository) FindByIDs(ctx context.Context, memberIDs []string) ([]domain.Member, error) {
	if len(memberIDs) == 0 {
		return nil, nil
	}

	// member_id is uuid, compare as text so a malformed id matches nothing instead of failing
	rows, err := r.db.Query(ctx, "SELECT "+memberColumns+" FROM member WHERE member_id::text = ANY($1)", memberIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *member)
	}
	return out, rows.Err()
}

func (r *memberRepository) MarkVerified(ctx context.Context, memberID string) error {
	return r.exec(ctx, "UPDATE member SET verified = TRUE, updated_at = NOW() WHERE member_id = $1", memberID)
}

func (r *memberRepository) UpdatePassword(ctx context.Context, memberID, hash string) error {
	return r.exec(ctx, "UPDATE member SET password = $1, updated_at = NOW() WHERE member_id = $2", hash, memberID)
}

func (r *memberRepository) UpdateName(ctx context.Context, memberID, name string) error {
	return r.exec(ctx, "UPDATE member SET name = $1, updated_at = NOW() WHERE member_id = $2", name, memberID)
}

func (r *memberRepository) UpdateAvatar(ctx context.Context, memberID, url, publicID string) error {
	return r.exec(ctx, "UPDATE member SET avatar_url = $1, avatar_public_id = $2, updated_at = NOW() WHERE member_id = $3", url, publicID, memberID)
}

func (r *memberRepository) exec(ctx context.Context, sql string, args ...interface{}) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func scanMember(row pgx.Row) (*domain.Member, error) {
	var m domain.Member
	var status int16
	err := row.Scan(&m.ID, &m.MemberID, &m.Name, &m.Email, &m.Password, &m.Verified,
		&m.AvatarURL, &m.AvatarPublicID, &status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Status = domain.MemberStatus(status)
	return &m, nil
}
