package handler

import (
	"net/http"
	"testing"
	"time"

	"aidat-service/internal/model"
	"aidat-service/pkg/config"
	"aidat-service/pkg/database"
	"aidat-service/pkg/jwtutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
}

func TestRegisterCreatesAdmin(t *testing.T) {
	setupTest(t)

	c, rec := newContext(t, http.MethodPost, "/auth/register", map[string]interface{}{
		"name":     "Ayşe Yılmaz",
		"email":    "ayse@example.com",
		"password": "secret123",
		"phone":    "05321234567",
	})
	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var user model.User
	require.NoError(t, database.GetDB().Where("email = ?", "ayse@example.com").First(&user).Error)
	assert.Equal(t, model.RoleAdmin, user.Role)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "05321234567", *user.Phone)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("secret123")))
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	setupTest(t)
	createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPost, "/auth/register", map[string]interface{}{
		"name":     "Ayşe Yılmaz",
		"email":    "ayse@example.com",
		"password": "secret123",
	})
	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	setupTest(t)

	c, rec := newContext(t, http.MethodPost, "/auth/register", map[string]interface{}{
		"name":     "Ayşe Yılmaz",
		"email":    "ayse@example.com",
		"password": "12345",
	})
	require.NoError(t, Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginReturnsTokenWithRole(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "ayse@example.com",
		"password": "secret123",
	})
	require.NoError(t, Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	token, ok := body["token"].(string)
	require.True(t, ok)

	claims, err := jwtutil.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.UserID)
	assert.Equal(t, model.RoleAdmin, claims.Role)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	setupTest(t)
	createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPost, "/auth/login", map[string]interface{}{
		"email":    "ayse@example.com",
		"password": "wrong-password",
	})
	require.NoError(t, Login(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "E-posta veya şifre hatalı.")
}

func TestForgotPasswordUnknownEmailLooksIdentical(t *testing.T) {
	fm := setupTest(t)

	c, rec := newContext(t, http.MethodPost, "/auth/forgot-password", map[string]interface{}{
		"email": "nobody@example.com",
	})
	require.NoError(t, ForgotPassword(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var count int64
	database.GetDB().Model(&model.PasswordResetToken{}).Count(&count)
	assert.Zero(t, count)
	assert.Empty(t, fm.resets)
}

func TestForgotPasswordIssuesSingleLiveToken(t *testing.T) {
	fm := setupTest(t)
	createAdmin(t, "ayse@example.com")

	for i := 0; i < 2; i++ {
		c, rec := newContext(t, http.MethodPost, "/auth/forgot-password", map[string]interface{}{
			"email": "ayse@example.com",
		})
		require.NoError(t, ForgotPassword(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	// The second request replaces the first token.
	var count int64
	database.GetDB().Model(&model.PasswordResetToken{}).
		Where("email = ? AND used_at IS NULL", "ayse@example.com").Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, []string{"ayse@example.com", "ayse@example.com"}, fm.resets)
}

func TestResetPasswordConsumesToken(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	token := model.PasswordResetToken{
		Email:     admin.Email,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, database.GetDB().Create(&token).Error)

	c, rec := newContext(t, http.MethodPost, "/auth/reset-password", map[string]interface{}{
		"token":    token.Token,
		"password": "brandnew1",
	})
	require.NoError(t, ResetPassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var user model.User
	require.NoError(t, database.GetDB().First(&user, admin.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("brandnew1")))

	// Replaying the same token must fail.
	c, rec = newContext(t, http.MethodPost, "/auth/reset-password", map[string]interface{}{
		"token":    token.Token,
		"password": "another99",
	})
	require.NoError(t, ResetPassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "daha önce kullanılmış")
}

func TestResetPasswordRejectsExpiredToken(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	token := model.PasswordResetToken{
		Email:     admin.Email,
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, database.GetDB().Create(&token).Error)

	c, rec := newContext(t, http.MethodPost, "/auth/reset-password", map[string]interface{}{
		"token":    token.Token,
		"password": "brandnew1",
	})
	require.NoError(t, ResetPassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "süresi dolmuş")
}

func TestResetPasswordRejectsUnknownToken(t *testing.T) {
	setupTest(t)

	c, rec := newContext(t, http.MethodPost, "/auth/reset-password", map[string]interface{}{
		"token":    "no-such-token",
		"password": "brandnew1",
	})
	require.NoError(t, ResetPassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
