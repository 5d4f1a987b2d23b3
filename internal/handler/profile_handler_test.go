package handler

import (
	"net/http"
	"testing"

	"aidat-service/internal/model"
	"aidat-service/pkg/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetProfileHidesPassword(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodGet, "/api/users/profile", nil)
	asUser(c, admin)
	require.NoError(t, GetProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "ayse@example.com", body["email"])
	assert.NotContains(t, body, "password")
}

func TestUpdateProfileRequiresName(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPatch, "/api/users/profile", map[string]interface{}{
		"name": "   ",
	})
	asUser(c, admin)
	require.NoError(t, UpdateProfile(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ad zorunludur.")
}

func TestUpdateProfileChangesNameAndPhone(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPatch, "/api/users/profile", map[string]interface{}{
		"name":  "Ayşe Kaya",
		"phone": "05329876543",
	})
	asUser(c, admin)
	require.NoError(t, UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.User
	require.NoError(t, database.GetDB().First(&got, admin.ID).Error)
	assert.Equal(t, "Ayşe Kaya", got.Name)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "05329876543", *got.Phone)
	assert.Equal(t, "ayse@example.com", got.Email)
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPost, "/api/users/change-password", map[string]interface{}{
		"currentPassword": "wrong-password",
		"newPassword":     "brandnew1",
	})
	asUser(c, admin)
	require.NoError(t, ChangePassword(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Mevcut şifre hatalı.")
}

func TestChangePassword(t *testing.T) {
	setupTest(t)
	admin := createAdmin(t, "ayse@example.com")

	c, rec := newContext(t, http.MethodPost, "/api/users/change-password", map[string]interface{}{
		"currentPassword": "secret123",
		"newPassword":     "brandnew1",
	})
	asUser(c, admin)
	require.NoError(t, ChangePassword(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got model.User
	require.NoError(t, database.GetDB().First(&got, admin.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.Password), []byte("brandnew1")))
}
