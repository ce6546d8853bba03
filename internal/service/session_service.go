package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mlhuang/critterchat/internal/config"
	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SessionService is the session authority: it issues anonymous sessions
// before any identity exists. The session id is what login later binds to
// an identity record; the token keeps it stable across reloads.
type SessionService struct {
	sessionRepo repository.SessionRepository
	cfg         *config.Config
}

func NewSessionService(sessionRepo repository.SessionRepository, cfg *config.Config) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		cfg:         cfg,
	}
}

type SessionResult struct {
	SessionID    uuid.UUID
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

func (s *SessionService) Issue(ctx context.Context) (*SessionResult, error) {
	sessionID := uuid.New()
	expiresAt := time.Now().Add(time.Duration(s.cfg.SessionLifetimeDays) * 24 * time.Hour)

	refreshToken := uuid.New().String()
	hashedRefresh, err := bcrypt.GenerateFromPassword([]byte(refreshToken), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:               sessionID,
		RefreshTokenHash: string(hashedRefresh),
		ExpiresAt:        expiresAt,
		CreatedAt:        time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, err := s.signToken(sessionID, expiresAt)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		SessionID:    sessionID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Refresh re-signs an access token for an existing session, keeping the
// session id stable.
func (s *SessionService) Refresh(ctx context.Context, sessionID uuid.UUID, refreshToken string) (*SessionResult, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	if time.Now().After(session.ExpiresAt) {
		return nil, domain.ErrSessionNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(session.RefreshTokenHash), []byte(refreshToken)); err != nil {
		return nil, domain.ErrSessionNotFound
	}

	accessToken, err := s.signToken(session.ID, session.ExpiresAt)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		SessionID:   session.ID,
		AccessToken: accessToken,
		ExpiresAt:   session.ExpiresAt,
	}, nil
}

// Validate parses an access token and returns the session id it names.
func (s *SessionService) Validate(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return uuid.Nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	sid, ok := claims["sid"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sid claim")
	}
	return uuid.Parse(sid)
}

// End deletes the session row. Outstanding tokens still parse but the
// session can no longer be refreshed or resumed.
func (s *SessionService) End(ctx context.Context, sessionID uuid.UUID) error {
	return s.sessionRepo.Delete(ctx, sessionID)
}

func (s *SessionService) signToken(sessionID uuid.UUID, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID.String(),
		"exp": expiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
