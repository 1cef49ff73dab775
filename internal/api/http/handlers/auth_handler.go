package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cleantrack/cleantrack-api/internal/api/dto"
	"github.com/cleantrack/cleantrack-api/internal/auth"
	"github.com/cleantrack/cleantrack-api/internal/domain"
	"github.com/cleantrack/cleantrack-api/internal/service"
	apperrors "github.com/cleantrack/cleantrack-api/pkg/util/errorutil"
)

const (
	signupMessage   = "Verification email sent. Please check your inbox."
	verifiedMessage = "Email verified successfully! You can now log in."
	loginMessage    = "Login successful"
)

// AuthHandler exposes signup, verification and login endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// SignupStudent handles POST /auth/signup/student.
func (h *AuthHandler) SignupStudent(c *fiber.Ctx) error {
	var req dto.StudentSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	err := h.auth.SignupStudent(c.UserContext(), service.SignupInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		RoomNumber: req.RoomNumber,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: signupMessage})
}

// SignupCaretaker handles POST /auth/signup/caretaker.
func (h *AuthHandler) SignupCaretaker(c *fiber.Ctx) error {
	var req dto.CaretakerSignupRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	err := h.auth.SignupCaretaker(c.UserContext(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Floor:    req.Floor,
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: signupMessage})
}

// VerifyStudent handles POST /auth/verify/student.
func (h *AuthHandler) VerifyStudent(c *fiber.Ctx) error {
	return h.verify(c, domain.RoleStudent)
}

// VerifyCaretaker handles POST /auth/verify/caretaker.
func (h *AuthHandler) VerifyCaretaker(c *fiber.Ctx) error {
	return h.verify(c, domain.RoleCaretaker)
}

func (h *AuthHandler) verify(c *fiber.Ctx, role domain.Role) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.auth.Verify(c.UserContext(), req.Email, req.Code, role); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: verifiedMessage})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("Email and password are required", nil)
	}
	role, ok := domain.ParseRole(req.Role)
	if !ok {
		return apperrors.NewValidationError("Invalid role", map[string]any{"role": req.Role})
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password, role)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Message:   loginMessage,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	})
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	user, err := h.auth.Me(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}
	return c.JSON(userResponse(user))
}

// CheckToken handles GET /auth/verify. Reaching it means the middleware
// accepted the token.
func (h *AuthHandler) CheckToken(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.TokenCheckResponse{
		Valid: true,
		User:  dto.TokenClaims{ID: principal.UserID, Role: principal.Role},
	})
}
