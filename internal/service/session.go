package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/auth"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
	"github.com/tuanvumaihuynh/orderdesk/internal/repository"
)

type LoginParams struct {
	Email     string
	Password  string
	IP        string
	UserAgent string
}

type LoginResult struct {
	// Token is only ever returned here; the database keeps its hash.
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

type AuthService interface {
	Login(ctx context.Context, params LoginParams) (LoginResult, error)
	// Authenticate resolves a bearer token to its principal.
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Logout(ctx context.Context, sessionID uuid.UUID) error
	Heartbeat(ctx context.Context, sessionID uuid.UUID) error
	OnlineUsers(ctx context.Context) ([]model.OnlineUser, error)
	SweepExpired(ctx context.Context) (int64, error)
}

type authService struct {
	cfg         config.Auth
	logger      *slog.Logger
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository

	// dummyHash keeps login timing flat for unknown emails.
	dummyHash []byte
}

func NewAuthService(
	cfg config.Auth,
	logger *slog.Logger,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
) AuthService {
	logger = logger.With(slog.String("service", "auth"))
	dummy, err := bcrypt.GenerateFromPassword([]byte("orderdesk-dummy-password"), cfg.BcryptCost.Int())
	if err != nil {
		logger.Error("failed to hash dummy password", slog.Any("error", err))
	}
	return &authService{
		cfg:         cfg,
		logger:      logger,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		dummyHash:   dummy,
	}
}

func (s *authService) Login(ctx context.Context, params LoginParams) (LoginResult, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.TrimSpace(params.Email))
	if err != nil {
		if !errors.Is(err, apperr.UserNotFoundErr) {
			return LoginResult{}, fmt.Errorf("user repository get user by email: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(params.Password))
		return LoginResult{}, apperr.InvalidCredentialsErr
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return LoginResult{}, apperr.InvalidCredentialsErr
	}
	if !user.Active {
		return LoginResult{}, apperr.InvalidCredentialsErr
	}

	token, hash, err := auth.NewToken()
	if err != nil {
		return LoginResult{}, err
	}
	id, err := newID()
	if err != nil {
		return LoginResult{}, err
	}

	now := time.Now()
	session := model.Session{
		ID:         id,
		UserID:     user.ID,
		TokenHash:  hash,
		IP:         params.IP,
		UserAgent:  params.UserAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(s.cfg.SessionTTL),
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return LoginResult{}, fmt.Errorf("session repository create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID.String()))

	return LoginResult{Token: token, ExpiresAt: session.ExpiresAt, User: user}, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if token == "" {
		return auth.Principal{}, apperr.UnauthenticatedErr
	}

	now := time.Now()
	active, err := s.sessionRepo.GetActiveSession(ctx, auth.HashToken(token), now)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("session repository get active session: %w", err)
	}
	if !active.User.Active {
		return auth.Principal{}, apperr.UnauthenticatedErr
	}

	// Requests count as presence; refresh at most a few times per window.
	if now.Sub(active.Session.LastSeenAt) > s.cfg.PresenceWindow/4 {
		if err := s.sessionRepo.TouchSession(ctx, active.Session.ID, now); err != nil {
			s.logger.WarnContext(ctx, "touch session", slog.Any("error", err))
		}
	}

	return auth.Principal{
		UserID:      active.User.ID,
		SessionID:   active.Session.ID,
		Email:       active.User.Email,
		Role:        active.User.RoleName,
		Permissions: active.Permissions,
	}, nil
}

func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("session repository delete session: %w", err)
	}
	return nil
}

func (s *authService) Heartbeat(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessionRepo.TouchSession(ctx, sessionID, time.Now()); err != nil {
		return fmt.Errorf("session repository touch session: %w", err)
	}
	return nil
}

func (s *authService) OnlineUsers(ctx context.Context) ([]model.OnlineUser, error) {
	users, err := s.sessionRepo.ListOnlineUsers(ctx, time.Now().Add(-s.cfg.PresenceWindow))
	if err != nil {
		return nil, fmt.Errorf("session repository list online users: %w", err)
	}
	return users, nil
}

func (s *authService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("session repository delete expired sessions: %w", err)
	}
	return n, nil
}
