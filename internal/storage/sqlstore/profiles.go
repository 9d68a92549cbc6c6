package sqlstore

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"fourgears/internal/models"
	"fourgears/internal/storage"
)

const (
	tokenPrefix  = "fg_"
	tokenLength  = 32
	inviteLength = 10
)

var base62Chars = []byte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz")

var (
	// ErrInviteUsed is returned when an invite code was already redeemed.
	ErrInviteUsed = fmt.Errorf("invite code already used: %w", storage.ErrConflict)
	// ErrInviteExpired is returned when an invite code is past its expiry.
	ErrInviteExpired = errors.New("invite code expired")
)

var profileColumns = []string{"id", "email", "display_name", "role", "created_at"}

func randomBase62(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, big.NewInt(int64(len(base62Chars))))
		if err != nil {
			return "", err
		}
		out[i] = base62Chars[k.Int64()]
	}
	return string(out), nil
}

// HashToken returns the stored form of an API token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateProfile registers a profile and returns it with its plaintext API
// token. Only the token hash is stored.
func (s *Store) CreateProfile(ctx context.Context, email, name string, role models.Role) (models.Profile, string, error) {
	var (
		p     models.Profile
		token string
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		p, token, err = s.insertProfile(ctx, tx, email, name, role)
		return err
	})
	if err != nil {
		return models.Profile{}, "", err
	}
	return p, token, nil
}

func (s *Store) insertProfile(ctx context.Context, q querier, email, name string, role models.Role) (models.Profile, string, error) {
	secret, err := randomBase62(tokenLength)
	if err != nil {
		return models.Profile{}, "", fmt.Errorf("generate token: %w", err)
	}
	token := tokenPrefix + secret

	p := models.Profile{
		ID:          uuid.NewString(),
		Email:       strings.ToLower(strings.TrimSpace(email)),
		DisplayName: strings.TrimSpace(name),
		Role:        role,
		CreatedAt:   s.now(),
	}
	_, err = s.exec(ctx, q, s.sb.Insert("profiles").
		Columns("id", "email", "display_name", "role", "token_hash", "created_at").
		Values(p.ID, p.Email, p.DisplayName, string(p.Role), HashToken(token), p.CreatedAt))
	if err != nil {
		return models.Profile{}, "", mapErr(err, "insert profile "+p.Email)
	}
	return p, token, nil
}

// ProfileByToken resolves the profile owning a plaintext API token.
func (s *Store) ProfileByToken(ctx context.Context, token string) (models.Profile, error) {
	row, err := s.queryRow(ctx, s.db, s.sb.Select(profileColumns...).From("profiles").
		Where(sq.Eq{"token_hash": HashToken(token)}))
	if err != nil {
		return models.Profile{}, err
	}
	var p models.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Role, &p.CreatedAt); err != nil {
		return models.Profile{}, mapErr(err, "profile for token")
	}
	return p, nil
}

var inviteColumns = []string{"code", "created_by", "used_by", "used_at", "expires_at", "created_at"}

func scanInvite(row rowScanner) (models.InviteCode, error) {
	var (
		ic                models.InviteCode
		createdBy, usedBy sql.NullString
		usedAt, expiresAt sql.NullTime
	)
	if err := row.Scan(&ic.Code, &createdBy, &usedBy, &usedAt, &expiresAt, &ic.CreatedAt); err != nil {
		return models.InviteCode{}, err
	}
	ic.CreatedBy = stringPtr(createdBy)
	ic.UsedBy = stringPtr(usedBy)
	ic.UsedAt = timePtr(usedAt)
	ic.ExpiresAt = timePtr(expiresAt)
	return ic, nil
}

// CreateInviteCode issues a single-use signup code.
func (s *Store) CreateInviteCode(ctx context.Context, createdBy *string, expiresAt *time.Time) (models.InviteCode, error) {
	code, err := randomBase62(inviteLength)
	if err != nil {
		return models.InviteCode{}, fmt.Errorf("generate invite code: %w", err)
	}
	ic := models.InviteCode{Code: code, CreatedBy: createdBy, ExpiresAt: expiresAt, CreatedAt: s.now()}
	_, err = s.exec(ctx, s.db, s.sb.Insert("invite_codes").Columns(inviteColumns...).
		Values(ic.Code, nullString(ic.CreatedBy), nil, nil, nullTime(ic.ExpiresAt), ic.CreatedAt))
	if err != nil {
		return models.InviteCode{}, mapErr(err, "insert invite code")
	}
	return ic, nil
}

// ListInviteCodes returns every invite code, newest first.
func (s *Store) ListInviteCodes(ctx context.Context) ([]models.InviteCode, error) {
	rows, err := s.query(ctx, s.db, s.sb.Select(inviteColumns...).From("invite_codes").OrderBy("created_at DESC", "code ASC"))
	if err != nil {
		return nil, fmt.Errorf("list invite codes: %w", err)
	}
	defer rows.Close()

	codes := []models.InviteCode{}
	for rows.Next() {
		ic, err := scanInvite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invite code: %w", err)
		}
		codes = append(codes, ic)
	}
	return codes, rows.Err()
}

// RedeemInviteCode consumes an invite code and creates a user profile in one
// transaction. The code stays unused when the profile cannot be created.
func (s *Store) RedeemInviteCode(ctx context.Context, code, email, name string) (models.Profile, string, error) {
	var (
		p     models.Profile
		token string
	)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row, err := s.queryRow(ctx, tx, s.sb.Select(inviteColumns...).From("invite_codes").Where(sq.Eq{"code": code}))
		if err != nil {
			return err
		}
		ic, err := scanInvite(row)
		if err != nil {
			return mapErr(err, "invite code")
		}
		now := s.now()
		if ic.UsedBy != nil || ic.UsedAt != nil {
			return ErrInviteUsed
		}
		if ic.ExpiresAt != nil && !now.Before(*ic.ExpiresAt) {
			return ErrInviteExpired
		}

		p, token, err = s.insertProfile(ctx, tx, email, name, models.RoleUser)
		if err != nil {
			return err
		}
		// used_at IS NULL fails a concurrent redemption.
		return s.execAffecting(ctx, tx, s.sb.Update("invite_codes").
			Set("used_by", p.ID).
			Set("used_at", now).
			Where(sq.Eq{"code": code, "used_at": nil}), "invite code")
	})
	if err != nil {
		return models.Profile{}, "", err
	}
	return p, token, nil
}
