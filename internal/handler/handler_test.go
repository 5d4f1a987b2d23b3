package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"aidat-service/internal/model"
	"aidat-service/pkg/config"
	"aidat-service/pkg/database"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	prometheus.InitMetrics(&config.Config{
		Metrics: config.MetricsConfig{Prefix: "aidat"},
	})
}

// fakeMailer records outbound emails instead of sending them.
type fakeMailer struct {
	invites []string
	resets  []string
	reviews []string
}

func (f *fakeMailer) SendInvite(to, inviteURL, apartmentName, unitNumber, invitedBy string) error {
	f.invites = append(f.invites, to)
	return nil
}

func (f *fakeMailer) SendPaymentStatus(to, residentName string, approved bool, month, year int, amount float64, rejectionReason string) error {
	f.reviews = append(f.reviews, to)
	return nil
}

func (f *fakeMailer) SendPasswordReset(to, resetURL string) error {
	f.resets = append(f.resets, to)
	return nil
}

// setupTest points the handler package at a fresh in-memory database and
// a recording mailer. Each test gets its own database.
func setupTest(t *testing.T) *fakeMailer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared",
		strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Apartment{},
		&model.Unit{},
		&model.Invite{},
		&model.Due{},
		&model.Payment{},
		&model.PasswordResetToken{},
	))
	database.Set(db)

	fm := &fakeMailer{}
	Initialize(&config.AppConfig{
		BaseURL:         "http://app.test",
		InviteExpiry:    48 * time.Hour,
		ResetExpiry:     time.Hour,
		MaxInviteEmails: 4,
	}, fm)

	return fm
}

// newContext builds an echo context around a JSON request.
func newContext(t *testing.T, method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec
}

// asUser stamps the context the way AuthMiddleware would after a valid
// token.
func asUser(c echo.Context, u *model.User) {
	c.Set("user_id", u.ID)
	c.Set("email", u.Email)
	c.Set("role", u.Role)
}

func setParams(c echo.Context, pairs ...string) {
	names := make([]string, 0, len(pairs)/2)
	values := make([]string, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		names = append(names, pairs[i])
		values = append(values, pairs[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
}

func jsonDecode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func hashPassword(t *testing.T, plain string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hashed)
}

func createAdmin(t *testing.T, email string) *model.User {
	t.Helper()
	user := model.User{
		Name:     "Test Yönetici",
		Email:    email,
		Password: hashPassword(t, "secret123"),
		Role:     model.RoleAdmin,
	}
	require.NoError(t, database.GetDB().Create(&user).Error)
	return &user
}

func createResident(t *testing.T, email string) *model.User {
	t.Helper()
	user := model.User{
		Name:     "Test Sakin",
		Email:    email,
		Password: hashPassword(t, "secret123"),
		Role:     model.RoleResident,
	}
	require.NoError(t, database.GetDB().Create(&user).Error)
	return &user
}

func createApartment(t *testing.T, managerID uint) *model.Apartment {
	t.Helper()
	apartment := model.Apartment{
		Name:      "Çınar Apartmanı",
		Address:   "Bağdat Cad. 42, Kadıköy",
		ManagerID: managerID,
	}
	require.NoError(t, database.GetDB().Create(&apartment).Error)
	return &apartment
}

func createUnit(t *testing.T, apartmentID uint, number string, residentID *uint) *model.Unit {
	t.Helper()
	unit := model.Unit{
		ApartmentID: apartmentID,
		UnitNumber:  number,
		ResidentID:  residentID,
	}
	require.NoError(t, database.GetDB().Create(&unit).Error)
	return &unit
}

func createDue(t *testing.T, apartmentID uint, month, year int) *model.Due {
	t.Helper()
	due := model.Due{
		ApartmentID: apartmentID,
		Month:       month,
		Year:        year,
		Amount:      1500,
		DueDate:     time.Date(year, time.Month(month), 25, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, database.GetDB().Create(&due).Error)
	return &due
}
