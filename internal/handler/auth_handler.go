package handler

import (
	"net/http"
	"time"

	"aidat-service/internal/model"
	"aidat-service/pkg/database"
	"aidat-service/pkg/jwtutil"
	"aidat-service/pkg/logger"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Register creates a new admin (building manager) account. Residents are
// never created here; they come in through invite acceptance.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	// Parse request
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Phone    string `json:"phone"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Email == "" || req.Password == "" {
		prometheus.RecordAuthError("incomplete_registration")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Ad, e-posta ve şifre zorunludur."})
	}

	if len(req.Password) < 6 {
		prometheus.RecordAuthError("weak_password")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Şifre en az 6 karakter olmalıdır."})
	}

	// Check if user already exists - track DB query
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existingUser model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&existingUser)
	if result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "Bu e-posta adresi zaten kullanılıyor."})
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	user := model.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
		Role:     model.RoleAdmin,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&user); result.Error != nil {
		log.Error("Failed to create user", zap.Error(result.Error))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	log.Info("Admin registered", zap.String("email", user.Email), zap.Uint("id", user.ID))
	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}

// Login authenticates a user and returns a JWT carrying the role.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	// Find user in database - track DB operation duration
	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "E-posta veya şifre hatalı."})
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "E-posta veya şifre hatalı."})
	}

	token, err := jwtutil.GenerateToken(user.Email, user.ID, user.Role)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// ForgotPassword issues a one-hour reset token. The response is the same
// whether or not the email exists, so the endpoint cannot be used to
// enumerate registered addresses.
func ForgotPassword(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordPasswordReset("requested")

	var req struct {
		Email string `json:"email"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse forgot-password request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "E-posta adresi zorunludur."})
	}

	var user model.User
	if err := database.GetDB().Where("email = ?", req.Email).First(&user).Error; err == nil {
		// Invalidate any outstanding tokens so at most one stays live.
		if err := database.GetDB().
			Where("email = ? AND used_at IS NULL", req.Email).
			Delete(&model.PasswordResetToken{}).Error; err != nil {
			log.Error("Failed to clear previous reset tokens", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
		}

		token := model.PasswordResetToken{
			Email:     req.Email,
			ExpiresAt: time.Now().Add(appCfg.ResetExpiry),
		}
		if err := database.GetDB().Create(&token).Error; err != nil {
			log.Error("Failed to create reset token", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
		}

		// The token row is the source of truth; delivery is best-effort.
		resetURL := appCfg.BaseURL + "/reset-password?token=" + token.Token
		sendErr := mail.SendPasswordReset(req.Email, resetURL)
		prometheus.RecordEmail("password_reset", sendErr)
		if sendErr != nil {
			log.Error("Failed to send password reset email", zap.Error(sendErr))
		}
	}

	// Same answer for unknown emails.
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// ResetPassword consumes a reset token and sets the new password. Both
// writes run in one transaction: a consumed token without a changed
// password (or the reverse) must be impossible.
func ResetPassword(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse reset-password request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Token == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token ve şifre zorunludur."})
	}

	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Şifre en az 6 karakter olmalıdır."})
	}

	var resetToken model.PasswordResetToken
	if err := database.GetDB().Where("token = ?", req.Token).First(&resetToken).Error; err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Geçersiz şifre sıfırlama bağlantısı."})
	}

	if resetToken.IsUsed() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu bağlantı daha önce kullanılmış."})
	}

	if resetToken.IsExpired(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Şifre sıfırlama bağlantısının süresi dolmuş."})
	}

	var user model.User
	if err := database.GetDB().Where("email = ?", resetToken.Email).First(&user).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Kullanıcı bulunamadı."})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	now := time.Now()
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.User{}).Where("id = ?", user.ID).
			Update("password", string(hashed)).Error; err != nil {
			return err
		}
		return tx.Model(&model.PasswordResetToken{}).Where("id = ?", resetToken.ID).
			Update("used_at", now).Error
	})
	if err != nil {
		log.Error("Password reset transaction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	prometheus.RecordPasswordReset("completed")
	log.Info("Password reset completed", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
