package handlers

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/cloudary/backend/internal/middleware"
	"github.com/cloudary/backend/internal/models"
	"github.com/cloudary/backend/internal/services"
	"github.com/cloudary/backend/pkg/logger"
	"github.com/cloudary/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const resetCodeTTL = 15 * time.Minute

type AuthHandler struct {
	DB     *gorm.DB
	Mailer services.Mailer
}

func NewAuthHandler(db *gorm.DB, mailer services.Mailer) *AuthHandler {
	return &AuthHandler{DB: db, Mailer: mailer}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req signupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" {
		return utils.Error(c, fiber.StatusBadRequest, "name is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "user already exists")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}

	if err := h.DB.Create(&user).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_signup", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
	})

	if h.Mailer != nil {
		go func(to, name string) {
			if err := h.Mailer.SendWelcome(context.Background(), to, name); err != nil {
				logger.Error("welcome_mail_failed", err, map[string]interface{}{"email": to})
			}
		}(user.Email, user.Name)
	}

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"user": user})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email and password are required")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"email": req.Email,
			"ip":    c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.Warn("login_failed_invalid_password", map[string]interface{}{
			"user_id": user.ID.String(),
			"ip":      c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    token,
		Expires:  time.Now().Add(utils.TokenTTL()),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})

	logger.Info("user_login", map[string]interface{}{
		"user_id": user.ID.String(),
		"ip":      c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "None",
	})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"user": currentUser})
}

type sendResetCodeRequest struct {
	Email string `json:"email"`
}

func (h *AuthHandler) SendResetCode(c *fiber.Ctx) error {
	var req sendResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email is required")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	code, err := utils.GenerateResetCode()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating reset code")
	}
	expiresAt := time.Now().Add(resetCodeTTL)

	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"reset_code":            code,
		"reset_code_expires_at": expiresAt,
	}).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing reset code")
	}

	if h.Mailer != nil {
		if err := h.Mailer.SendPasswordReset(c.Context(), user.Email, code); err != nil {
			logger.Error("reset_mail_failed", err, map[string]interface{}{"email": user.Email})
			return utils.Error(c, fiber.StatusInternalServerError, "failed sending reset email")
		}
	}

	logger.Info("reset_code_sent", map[string]interface{}{"user_id": user.ID.String()})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "reset code sent"})
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return utils.Error(c, fiber.StatusBadRequest, "email, otp and newPassword are required")
	}
	if len(req.NewPassword) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed loading user")
	}

	if user.ResetCode == nil || *user.ResetCode != req.Code {
		return utils.Error(c, fiber.StatusBadRequest, "invalid otp")
	}
	if user.ResetCodeExpiresAt == nil || time.Now().After(*user.ResetCodeExpiresAt) {
		return utils.Error(c, fiber.StatusBadRequest, "otp expired")
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	// Clearing the code makes it single-use.
	if err := h.DB.Model(&user).Updates(map[string]interface{}{
		"password_hash":         passwordHash,
		"reset_code":            nil,
		"reset_code_expires_at": nil,
	}).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed resetting password")
	}

	logger.Info("password_reset", map[string]interface{}{"user_id": user.ID.String()})
	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "password reset successful"})
}
