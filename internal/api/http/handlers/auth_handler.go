package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stateless-auth/internal/api/dto"
	"github.com/spec-kit/stateless-auth/internal/domain"
	"github.com/spec-kit/stateless-auth/internal/service"
	apperrors "github.com/spec-kit/stateless-auth/pkg/util"
)

// AuthHandler exposes the registration, login and password recovery endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.UserContext(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"id":    user.ID,
			"login": user.Login,
			"email": user.Email,
		},
		"message": fmt.Sprintf("user '%s' registration was successful", user.Login),
	})
}

// SocialRegister handles POST /auth/social-register.
func (h *AuthHandler) SocialRegister(c *fiber.Ctx) error {
	var req dto.SocialRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.SocialRegister(c.UserContext(), service.SocialRegisterInput{
		Provider:    domain.SocialProvider(req.Social),
		Token:       req.Token,
		TokenSecret: req.TokenSecret,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"id":    user.ID,
			"login": user.Login,
			"email": user.Email,
		},
		"message": fmt.Sprintf("%s social user has been created", req.Social),
	})
}

// SendSMS handles POST /auth/send-sms: credential check behind the attempt
// gate, then OTP dispatch.
func (h *AuthHandler) SendSMS(c *fiber.Ctx) error {
	var req dto.SendSMSRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Username == "" || req.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	user, err := h.auth.SendLoginCode(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":    fiber.Map{"id": user.ID},
		"message": fmt.Sprintf("SMS sent to '%s'", user.PhoneNumber),
	})
}

// VerifyCode handles POST /auth/verify-code and returns a session token.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req dto.VerifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	data, err := h.auth.VerifyLoginCode(c.UserContext(), req.User, req.Token)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		Token:       data.Token,
		ID:          data.ID,
		Email:       data.Email,
		Nicename:    data.Nicename,
		DisplayName: data.DisplayName,
	}})
}

// ValidateToken handles POST /auth/token/validate.
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		header = c.Get("X-Authorization")
	}

	claims, err := h.auth.ValidateToken(c.UserContext(), header)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data":    fiber.Map{"id": claims.Data.User.ID},
		"message": "valid token",
	})
}

// LostPassword handles POST /auth/lost-password.
func (h *AuthHandler) LostPassword(c *fiber.Ctx) error {
	var req dto.LostPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	email, err := h.auth.LostPassword(c.UserContext(), req.UserLogin)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("email was sent to '%s'", email),
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.auth.ResetPassword(c.UserContext(), req.Token, req.Password); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "password has been reset",
	})
}
