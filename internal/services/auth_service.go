package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"dblens/internal/logging"
	"dblens/internal/models"
	"dblens/internal/repositories"
	"dblens/internal/utils"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountLocked      = errors.New("account temporarily locked after too many failed logins")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
)

type AuthService struct {
	userRepo    *repositories.UserRepository
	sessionRepo *repositories.SessionRepository
	redisRepo   *repositories.RedisRepository
	auditSvc    *AuditService
}

func NewAuthService(userRepo *repositories.UserRepository, sessionRepo *repositories.SessionRepository, redisRepo *repositories.RedisRepository, auditSvc *AuditService) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		redisRepo:   redisRepo,
		auditSvc:    auditSvc,
	}
}

// TokenPair is what login, register and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// SetupRequired reports whether no user exists yet, i.e. the first-run admin
// still has to be created.
func (s *AuthService) SetupRequired() (bool, error) {
	count, err := s.userRepo.Count()
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

// Register creates a user and opens a session. The very first registered user
// becomes super_admin; everyone after that starts as viewer.
func (s *AuthService) Register(username, email, password string) (*TokenPair, error) {
	if err := utils.ValidatePassword(password); err != nil {
		return nil, err
	}

	if existing, err := s.userRepo.FindByEmail(email); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.New("email is already registered")
	}
	if existing, err := s.userRepo.FindByUsername(username); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, errors.New("username is already taken")
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	role := "viewer"
	count, err := s.userRepo.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = "super_admin"
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       user.Username,
		ActionType:        "register",
		ResourceType:      "user",
		ResourceID:        user.ID.String(),
		ResourceName:      user.Username,
		ActionDescription: "User registered",
	})

	return s.openSession(user, "", "")
}

// Login verifies credentials and opens a session, with a failed-attempt
// lockout counter.
func (s *AuthService) Login(usernameOrEmail, password, userAgent, ip string) (*TokenPair, error) {
	user, err := s.userRepo.FindByUsername(usernameOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		if user, err = s.userRepo.FindByEmail(usernameOrEmail); err != nil {
			return nil, err
		}
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return nil, ErrAccountLocked
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		user.FailedLogins++
		if user.FailedLogins >= maxFailedLogins {
			until := time.Now().Add(lockoutDuration)
			user.LockedUntil = &until
			user.FailedLogins = 0
		}
		if err := s.userRepo.Update(user); err != nil {
			logging.Log.WithError(err).Warn("failed to persist login failure counter")
		}
		s.auditSvc.Log(&models.AuditLog{
			PerformedBy:  user.Username,
			ActionType:   "login",
			ResourceType: "user",
			ResourceID:   user.ID.String(),
			Success:      false,
			ErrorMessage: "invalid password",
			IPAddress:    ip,
		})
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.RecordLogin(user.ID); err != nil {
		logging.Log.WithError(err).Warn("failed to record login time")
	}

	s.auditSvc.Log(&models.AuditLog{
		PerformedBy:       user.Username,
		ActionType:        "login",
		ResourceType:      "user",
		ResourceID:        user.ID.String(),
		ResourceName:      user.Username,
		ActionDescription: "User logged in",
		IPAddress:         ip,
	})

	return s.openSession(user, userAgent, ip)
}

// Refresh exchanges a valid refresh token for a new pair, rotating the
// session: the old jti is revoked and blacklisted.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := utils.VerifyJWT(refreshToken, utils.RefreshTokenSecret)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return nil, ErrInvalidRefresh
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	session, err := s.sessionRepo.FindByID(jti)
	if err != nil {
		return nil, err
	}
	if session == nil || session.IsRevoked || session.ExpiresAt.Before(time.Now()) {
		return nil, ErrInvalidRefresh
	}
	if session.RefreshTokenHash != utils.HashToken(refreshToken) {
		// token reuse after rotation: kill every session for this user
		if err := s.sessionRepo.RevokeAllForUser(userID); err != nil {
			logging.Log.WithError(err).Error("failed to revoke sessions after refresh token reuse")
		}
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidRefresh
	}

	if err := s.revokeSession(session); err != nil {
		return nil, err
	}

	return s.openSession(user, session.UserAgent, session.IPAddress)
}

// Logout revokes the session behind the given access token claims.
func (s *AuthService) Logout(claims *utils.Claims) error {
	jti, err := uuid.Parse(claims.ID)
	if err != nil {
		return err
	}
	session, err := s.sessionRepo.FindByID(jti)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	return s.revokeSession(session)
}

func (s *AuthService) Sessions(userID uuid.UUID) ([]models.Session, error) {
	return s.sessionRepo.ListActiveForUser(userID)
}

// RevokeSession revokes one of the user's sessions by id.
func (s *AuthService) RevokeSession(userID, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		return err
	}
	if session == nil || session.UserID != userID {
		return errors.New("session not found")
	}
	return s.revokeSession(session)
}

func (s *AuthService) RevokeAllSessions(userID uuid.UUID) error {
	sessions, err := s.sessionRepo.ListActiveForUser(userID)
	if err != nil {
		return err
	}
	for i := range sessions {
		if err := s.revokeSession(&sessions[i]); err != nil {
			return err
		}
	}
	return nil
}

// ChangePassword verifies the current password, sets the new one and revokes
// every other session.
func (s *AuthService) ChangePassword(userID uuid.UUID, current, next string) error {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("user not found")
	}
	if !utils.CheckPassword(current, user.PasswordHash) {
		return errors.New("current password is incorrect")
	}
	if err := utils.ValidatePassword(next); err != nil {
		return err
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.userRepo.Update(user); err != nil {
		return err
	}

	return s.RevokeAllSessions(userID)
}

func (s *AuthService) openSession(user *models.User, userAgent, ip string) (*TokenPair, error) {
	jti := uuid.New()

	accessToken, refreshToken, err := utils.GenerateTokens(user.ID, user.Role, jti.String())
	if err != nil {
		return nil, err
	}

	session := &models.Session{
		ID:               jti,
		UserID:           user.ID,
		RefreshTokenHash: utils.HashToken(refreshToken),
		UserAgent:        userAgent,
		IPAddress:        ip,
		ExpiresAt:        time.Now().Add(utils.RefreshTokenDuration),
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}

	if s.redisRepo != nil {
		if err := s.redisRepo.StoreSession(context.Background(), jti.String(), user.ID.String()); err != nil {
			logging.Log.WithError(err).Warn("failed to cache session in redis")
		}
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, User: user}, nil
}

func (s *AuthService) revokeSession(session *models.Session) error {
	if err := s.sessionRepo.Revoke(session.ID); err != nil {
		return err
	}
	if s.redisRepo != nil {
		ctx := context.Background()
		if err := s.redisRepo.Blacklist(ctx, session.ID.String()); err != nil {
			logging.Log.WithError(err).Warn("failed to blacklist session in redis")
		}
		if err := s.redisRepo.DeleteSession(ctx, session.ID.String()); err != nil {
			logging.Log.WithError(err).Warn("failed to drop cached session")
		}
	}
	return nil
}
