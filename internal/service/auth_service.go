package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/config"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/mailer"
	"github.com/cleantrack/cleantrack-api/internal/repository"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

const verificationSubject = "Your CleanTrack Verification Code"

// AuthService coordinates signup, email verification and login.
type AuthService struct {
	users       repository.UserRepository
	rooms       repository.RoomRepository
	tokenMgr    *auth.TokenManager
	mailer      mailer.Mailer
	bcryptCost  int
	emailDomain string
	logger      *zap.Logger
	newCode     func() (string, error)
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	RoomRepo repository.RoomRepository
	Tokens   *auth.TokenManager
	Mailer   mailer.Mailer
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:       deps.UserRepo,
		rooms:       deps.RoomRepo,
		tokenMgr:    deps.Tokens,
		mailer:      deps.Mailer,
		bcryptCost:  cfg.BcryptCost,
		emailDomain: cfg.EmailDomain,
		logger:      deps.Logger,
		newCode:     verificationCode,
	}
}

// SignupInput is shared by student and caretaker registration.
type SignupInput struct {
	Name       string
	Email      string
	Password   string
	RoomNumber string
	Floor      *int
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// SignupStudent registers an unverified student and mails a verification code.
func (s *AuthService) SignupStudent(ctx context.Context, input SignupInput) error {
	input.RoomNumber = strings.TrimSpace(input.RoomNumber)
	if input.RoomNumber == "" {
		return apperrors.NewValidationError("Room number is required", nil)
	}
	input.Floor = nil
	return s.signup(ctx, domain.RoleStudent, input)
}

// SignupCaretaker registers an unverified caretaker, optionally bound to a floor.
func (s *AuthService) SignupCaretaker(ctx context.Context, input SignupInput) error {
	if input.Floor != nil && *input.Floor < 0 {
		return apperrors.NewValidationError("Invalid floor", nil)
	}
	input.RoomNumber = ""
	return s.signup(ctx, domain.RoleCaretaker, input)
}

func (s *AuthService) signup(ctx context.Context, role domain.Role, input SignupInput) error {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" || input.Password == "" {
		return apperrors.NewValidationError("Name, email and password are required", nil)
	}
	if !strings.HasSuffix(email, s.emailDomain) {
		return apperrors.NewValidationError("Email must end with "+s.emailDomain, nil)
	}

	existing, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.IsVerified:
		return apperrors.NewValidationError("User already exists", nil)
	case err == nil:
		// Unverified leftovers are replaced so the user can request a fresh code.
		if err := s.users.DeleteUnverifiedByEmail(ctx, email); err != nil {
			return apperrors.NewPersistenceError(err)
		}
	case !apperrors.IsNotFound(err):
		return apperrors.NewPersistenceError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	code, err := s.newCode()
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:             name,
		Email:            email,
		PasswordHash:     hash,
		Role:             role,
		Floor:            input.Floor,
		VerificationCode: &code,
	}
	if input.RoomNumber != "" {
		room := input.RoomNumber
		user.RoomNumber = &room
	}
	if err := s.users.Create(ctx, user); err != nil {
		return apperrors.NewPersistenceError(err)
	}

	if err := s.mailer.Send(ctx, email, verificationSubject, "Your verification code is: "+code); err != nil {
		s.logger.Error("failed to send verification email", zap.String("email", email), zap.Error(err))
	}
	s.logger.Info("user signed up", zap.String("user_id", user.ID), zap.String("role", string(role)))
	return nil
}

// Verify checks the emailed code for an account of the given role.
func (s *AuthService) Verify(ctx context.Context, email, code string, role domain.Role) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("User not found", nil)
		}
		return apperrors.NewPersistenceError(err)
	}
	if user.IsVerified {
		return apperrors.NewValidationError("Already verified", nil)
	}
	if user.VerificationCode == nil ||
		subtle.ConstantTimeCompare([]byte(*user.VerificationCode), []byte(strings.TrimSpace(code))) != 1 {
		return apperrors.NewValidationError("Invalid verification code", nil)
	}
	if err := s.users.MarkVerified(ctx, user.ID); err != nil {
		return apperrors.MapError(err, "User")
	}

	if role == domain.RoleCaretaker && user.Floor != nil {
		n, err := s.rooms.AssignCaretakerForFloor(ctx, *user.Floor, user.Name)
		if err != nil {
			s.logger.Warn("failed to assign caretaker to floor rooms",
				zap.String("user_id", user.ID), zap.Int("floor", *user.Floor), zap.Error(err))
		} else {
			s.logger.Info("caretaker assigned to floor",
				zap.String("user_id", user.ID), zap.Int("floor", *user.Floor), zap.Int64("rooms", n))
		}
	}
	return nil
}

// Login authenticates a verified account and issues a session token.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetByEmailAndRole(ctx, email, role)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("User not found", nil)
		}
		return nil, apperrors.NewPersistenceError(err)
	}
	if !user.IsVerified {
		return nil, apperrors.NewValidationError("Please verify your email first.", nil)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewValidationError("Invalid credentials", nil)
	}

	token, exp, err := s.tokenMgr.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// Me loads the account behind a token.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.NewNotFound("User", nil)
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err, "User")
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// verificationCode returns a uniformly random six digit code.
func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
