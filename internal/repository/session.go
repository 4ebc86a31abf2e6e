package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/storage/db"
)

// ActiveSession is a session joined with its owner and the owner's grants.
type ActiveSession struct {
	Session     model.Session
	User        model.User
	Permissions []auth.Permission
}

type SessionRepository interface {
	WithDB(db db.DB) SessionRepository
	CreateSession(ctx context.Context, session model.Session) error
	// GetActiveSession returns the unexpired session matching tokenHash.
	GetActiveSession(ctx context.Context, tokenHash string, now time.Time) (ActiveSession, error)
	TouchSession(ctx context.Context, id uuid.UUID, seenAt time.Time) error
	DeleteSession(ctx context.Context, id uuid.UUID) error
	DeleteUserSessions(ctx context.Context, userID uuid.UUID) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
	ListOnlineUsers(ctx context.Context, since time.Time) ([]model.OnlineUser, error)
}

type sessionRepository struct {
	db db.DB
}

func NewSessionRepository(db db.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r sessionRepository) WithDB(db db.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r sessionRepository) CreateSession(ctx context.Context, session model.Session) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, token_hash, ip, user_agent, created_at, last_seen_at, expires_at)
		VALUES (@id, @user_id, @token_hash, @ip, @user_agent, @created_at, @last_seen_at, @expires_at)
	`, pgx.NamedArgs{
		"id":           session.ID,
		"user_id":      session.UserID,
		"token_hash":   session.TokenHash,
		"ip":           session.IP,
		"user_agent":   session.UserAgent,
		"created_at":   session.CreatedAt,
		"last_seen_at": session.LastSeenAt,
		"expires_at":   session.ExpiresAt,
	})
	if err != nil {
		if db.IsForeignKeyViolation(err, "") {
			return apperr.UserNotFoundErr.WrapParent(err)
		}
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

type activeSessionRow struct {
	ID           uuid.UUID `db:"id"`
	UserID       uuid.UUID `db:"user_id"`
	TokenHash    string    `db:"token_hash"`
	IP           string    `db:"ip"`
	UserAgent    string    `db:"user_agent"`
	CreatedAt    time.Time `db:"created_at"`
	LastSeenAt   time.Time `db:"last_seen_at"`
	ExpiresAt    time.Time `db:"expires_at"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	RoleID       uuid.UUID `db:"role_id"`
	RoleName     string    `db:"role_name"`
	Active       bool      `db:"active"`
	Permissions  []string  `db:"permissions"`
}

func (r sessionRepository) GetActiveSession(ctx context.Context, tokenHash string, now time.Time) (ActiveSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.user_id, s.token_hash, s.ip, s.user_agent, s.created_at, s.last_seen_at, s.expires_at,
			u.email, u.name, u.password_hash, u.role_id, r.name AS role_name, u.active,
			COALESCE(ARRAY(SELECT rp.permission FROM role_permissions rp WHERE rp.role_id = r.id ORDER BY rp.permission), '{}') AS permissions
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		JOIN roles r ON r.id = u.role_id
		WHERE s.token_hash = @token_hash AND s.expires_at > @now
	`, pgx.NamedArgs{"token_hash": tokenHash, "now": now})
	if err != nil {
		return ActiveSession{}, fmt.Errorf("query session: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[activeSessionRow])
	if err != nil {
		if db.IsNoRows(err) {
			return ActiveSession{}, apperr.UnauthenticatedErr
		}
		return ActiveSession{}, fmt.Errorf("collect session: %w", err)
	}

	perms := make([]auth.Permission, 0, len(row.Permissions))
	for _, p := range row.Permissions {
		perms = append(perms, auth.Permission(p))
	}

	return ActiveSession{
		Session: model.Session{
			ID:         row.ID,
			UserID:     row.UserID,
			TokenHash:  row.TokenHash,
			IP:         row.IP,
			UserAgent:  row.UserAgent,
			CreatedAt:  row.CreatedAt,
			LastSeenAt: row.LastSeenAt,
			ExpiresAt:  row.ExpiresAt,
		},
		User: model.User{
			ID:           row.UserID,
			Email:        row.Email,
			Name:         row.Name,
			PasswordHash: row.PasswordHash,
			RoleID:       row.RoleID,
			RoleName:     row.RoleName,
			Active:       row.Active,
		},
		Permissions: perms,
	}, nil
}

func (r sessionRepository) TouchSession(ctx context.Context, id uuid.UUID, seenAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sessions SET last_seen_at = @seen_at WHERE id = @id`,
		pgx.NamedArgs{"id": id, "seen_at": seenAt},
	)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

func (r sessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = @id`, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r sessionRepository) DeleteUserSessions(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE user_id = @user_id`, pgx.NamedArgs{"user_id": userID}); err != nil {
		return fmt.Errorf("delete user sessions: %w", err)
	}
	return nil
}

func (r sessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= @now`, pgx.NamedArgs{"now": now})
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

type onlineUserRow struct {
	UserID     uuid.UUID `db:"user_id"`
	Name       string    `db:"name"`
	Email      string    `db:"email"`
	Sessions   int       `db:"sessions"`
	LastSeenAt time.Time `db:"last_seen_at"`
}

func (r sessionRepository) ListOnlineUsers(ctx context.Context, since time.Time) ([]model.OnlineUser, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id AS user_id, u.name, u.email, COUNT(*)::int AS sessions, MAX(s.last_seen_at) AS last_seen_at
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE s.last_seen_at >= @since AND s.expires_at > @since AND u.active
		GROUP BY u.id
		ORDER BY MAX(s.last_seen_at) DESC
	`, pgx.NamedArgs{"since": since})
	if err != nil {
		return nil, fmt.Errorf("query online users: %w", err)
	}

	users, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.OnlineUser, error) {
		u, err := pgx.RowToStructByName[onlineUserRow](row)
		return model.OnlineUser(u), err
	})
	if err != nil {
		return nil, fmt.Errorf("collect online users: %w", err)
	}

	return users, nil
}
