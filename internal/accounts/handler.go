package accounts

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pritam-ray/Personalized-chatbot/pkg/auth"
	"github.com/pritam-ray/Personalized-chatbot/pkg/email"
	"github.com/pritam-ray/Personalized-chatbot/pkg/logging"
)

type Handler struct {
	store       *Store
	mailer      *email.Sender
	jwtSecret   []byte
	frontendURL string
	logger      logging.Logger
}

func NewHandler(store *Store, mailer *email.Sender, jwtSecret []byte, frontendURL string, logger logging.Logger) *Handler {
	return &Handler{
		store:       store,
		mailer:      mailer,
		jwtSecret:   jwtSecret,
		frontendURL: frontendURL,
		logger:      logger,
	}
}

// RegisterPublicRoutes mounts the unauthenticated auth endpoints.
func (h *Handler) RegisterPublicRoutes(group *gin.RouterGroup) {
	group.POST("/auth/register", h.Register)
	group.POST("/auth/login", h.Login)
	group.POST("/auth/forgot-password", h.ForgotPassword)
	group.POST("/auth/reset-password", h.ResetPassword)
}

// RegisterProtectedRoutes mounts endpoints that require a valid session.
func (h *Handler) RegisterProtectedRoutes(group *gin.RouterGroup) {
	group.GET("/auth/me", h.Me)
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A valid email is required"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, err)
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), req.Email, req.Name, hash)
	if errors.Is(err, ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	h.respondWithSession(c, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil || !auth.CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	h.respondWithSession(c, http.StatusOK, user)
}

func (h *Handler) Me(c *gin.Context) {
	user, err := h.store.GetUserByID(c.Request.Context(), auth.UserID(c))
	if errors.Is(err, ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword always responds with 200 so the endpoint cannot be used to
// probe which emails are registered.
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	accepted := gin.H{"message": "If that email is registered, a reset link has been sent"}

	user, err := h.store.GetUserByEmail(c.Request.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		c.JSON(http.StatusOK, accepted)
		return
	}

	token, err := h.store.CreateResetToken(c.Request.Context(), user.ID)
	if err != nil {
		h.internalError(c, err)
		return
	}

	if h.mailer.Configured() {
		link := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(h.frontendURL, "/"), token)
		body := fmt.Sprintf(
			"<p>Hello,</p><p>Click the link below to reset your password. The link expires in one hour.</p><p><a href=%q>Reset password</a></p>",
			link)
		if err := h.mailer.SendMail(c.Request.Context(), user.Email, "Reset your password", body); err != nil && h.logger != nil {
			h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Failed to send reset email")
		}
	} else if h.logger != nil {
		h.logger.WithFields(logging.Fields{"user_id": user.ID}).Warn("Email not configured, reset token issued but not delivered")
	}

	c.JSON(http.StatusOK, accepted)
}

type resetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if len(req.Password) < 8 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 8 characters"})
		return
	}

	userID, err := h.store.ConsumeResetToken(c.Request.Context(), req.Token)
	if errors.Is(err, ErrResetNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired reset token"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, err)
		return
	}
	if err := h.store.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		h.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

func (h *Handler) respondWithSession(c *gin.Context, status int, user *User) {
	token, err := auth.GenerateJWT(user.ID, user.Email, h.jwtSecret)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	if h.logger != nil {
		h.logger.WithFields(logging.Fields{"error": err.Error()}).Error("Account operation failed")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
