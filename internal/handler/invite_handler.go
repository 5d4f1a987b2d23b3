package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"aidat-service/internal/middleware"
	"aidat-service/internal/model"
	"aidat-service/pkg/database"
	"aidat-service/pkg/logger"
	"aidat-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// errUnitOccupied aborts the accept transaction when another acceptance
// claimed the unit between our vacancy check and our write.
var errUnitOccupied = errors.New("unit already occupied")

// InviteResult is the per-email outcome of a bulk invite request.
type InviteResult struct {
	Email     string `json:"email"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	InviteURL string `json:"inviteUrl,omitempty"`
}

// CreateInvites invites one or more email addresses to a vacant unit.
// Each email is handled independently; an already-registered address
// produces a per-email failure without aborting the rest, and the call
// as a whole succeeds if at least one invite was created.
func CreateInvites(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	apartment, err := findOwnedApartment(database.GetDB(), apartmentID, managerID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	var req struct {
		UnitID uint     `json:"unitId"`
		Emails []string `json:"emails"`
		// Single email kept for the older request format.
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse invite request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	rawEmails := req.Emails
	if len(rawEmails) == 0 && req.Email != "" {
		rawEmails = []string{req.Email}
	}

	// Lower-case and deduplicate; email identity is case-insensitive.
	seen := make(map[string]bool)
	emails := make([]string, 0, len(rawEmails))
	for _, e := range rawEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || seen[e] {
			continue
		}
		seen[e] = true
		emails = append(emails, e)
	}

	if len(emails) == 0 || req.UnitID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Email ve daire zorunludur."})
	}

	if len(emails) > appCfg.MaxInviteEmails {
		emails = emails[:appCfg.MaxInviteEmails]
	}

	var unit model.Unit
	if err := database.GetDB().
		Where("id = ? AND apartment_id = ?", req.UnitID, apartmentID).
		First(&unit).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Daire bulunamadı."})
	}

	if unit.Occupied() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu dairede zaten bir sakin var."})
	}

	// At most one live invite per unit: expire everything outstanding
	// before issuing new ones.
	now := time.Now()
	if err := database.GetDB().Model(&model.Invite{}).
		Where("unit_id = ? AND used_at IS NULL", req.UnitID).
		Update("expires_at", now).Error; err != nil {
		log.Error("Failed to expire previous invites", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	var inviter model.User
	invitedBy := "Yönetici"
	if err := database.GetDB().First(&inviter, managerID).Error; err == nil {
		invitedBy = inviter.Name
	}

	expiresAt := now.Add(appCfg.InviteExpiry)
	results := make([]InviteResult, 0, len(emails))

	for _, email := range emails {
		var existing model.User
		if err := database.GetDB().Where("email = ?", email).First(&existing).Error; err == nil {
			results = append(results, InviteResult{
				Email:   email,
				Success: false,
				Error:   "Bu e-posta zaten kayıtlı.",
			})
			continue
		}

		invite := model.Invite{
			Email:       email,
			UnitID:      req.UnitID,
			InvitedByID: managerID,
			ExpiresAt:   expiresAt,
		}
		if err := database.GetDB().Create(&invite).Error; err != nil {
			log.Error("Failed to create invite", zap.Error(err), zap.String("email", email))
			results = append(results, InviteResult{
				Email:   email,
				Success: false,
				Error:   "Davet oluşturulamadı.",
			})
			continue
		}
		prometheus.RecordInviteOperation("created")

		inviteURL := appCfg.BaseURL + "/invite?token=" + invite.Token

		// Invite row is the source of truth; the email is best-effort.
		sendErr := mail.SendInvite(email, inviteURL, apartment.Name, unit.UnitNumber, invitedBy)
		prometheus.RecordEmail("invite", sendErr)
		if sendErr != nil {
			log.Error("Failed to send invite email", zap.Error(sendErr), zap.String("email", email))
		}

		results = append(results, InviteResult{
			Email:     email,
			Success:   true,
			InviteURL: inviteURL,
		})
	}

	anySuccess := false
	firstURL := ""
	for _, r := range results {
		if r.Success {
			anySuccess = true
			if firstURL == "" {
				firstURL = r.InviteURL
			}
		}
	}

	log.Info("Invites processed",
		zap.Uint("unit_id", req.UnitID),
		zap.Int("requested", len(emails)),
		zap.Bool("any_success", anySuccess))

	return c.JSON(http.StatusCreated, echo.Map{
		"success":   anySuccess,
		"results":   results,
		"inviteUrl": firstURL,
	})
}

// ValidateInvite checks a token and returns what the invitee will see on
// the accept page. Read-only and safe to call repeatedly.
func ValidateInvite(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Token gereklidir."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var invite model.Invite
	err := database.GetDB().
		Where("token = ?", token).
		Preload("Unit").
		Preload("Unit.Apartment").
		First(&invite).Error
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Geçersiz davet bağlantısı."})
	}

	if invite.IsUsed() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu davet bağlantısı daha önce kullanılmış."})
	}

	if invite.IsExpired(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu davet bağlantısının süresi dolmuş."})
	}

	prometheus.RecordInviteOperation("validated")
	return c.JSON(http.StatusOK, echo.Map{
		"email":         invite.Email,
		"unitNumber":    invite.Unit.UnitNumber,
		"apartmentName": invite.Unit.Apartment.Name,
	})
}

// AcceptInvite consumes an invite: it creates the resident account,
// occupies the unit, and marks the invite used, all in one transaction.
// The unit write is conditioned on the unit still being vacant, so of
// two racing acceptances exactly one wins and the other gets a conflict.
func AcceptInvite(c echo.Context) error {
	log := logger.FromContext(c)

	var req struct {
		Token    string `json:"token"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse invite accept request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Token == "" || req.Name == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Tüm alanlar zorunludur."})
	}

	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Şifre en az 6 karakter olmalıdır."})
	}

	var invite model.Invite
	if err := database.GetDB().Where("token = ?", req.Token).First(&invite).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Geçersiz davet bağlantısı."})
	}

	if invite.IsUsed() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu davet bağlantısı daha önce kullanılmış."})
	}

	if invite.IsExpired(time.Now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Davet bağlantısının süresi dolmuş."})
	}

	// A registration may have raced the invite.
	var existing model.User
	if err := database.GetDB().Where("email = ?", invite.Email).First(&existing).Error; err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "Bu e-posta adresi zaten kullanılıyor."})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	now := time.Now()
	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		user := model.User{
			Name:     req.Name,
			Email:    invite.Email,
			Password: string(hashed),
			Role:     model.RoleResident,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// Compare-and-set on vacancy; zero rows means we lost the race.
		res := tx.Model(&model.Unit{}).
			Where("id = ? AND resident_id IS NULL", invite.UnitID).
			Update("resident_id", user.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errUnitOccupied
		}

		return tx.Model(&model.Invite{}).Where("id = ?", invite.ID).
			Updates(map[string]interface{}{
				"used_at":         now,
				"invited_user_id": user.ID,
			}).Error
	})
	if err != nil {
		if errors.Is(err, errUnitOccupied) {
			log.Warn("Invite accept lost unit occupancy race", zap.Uint("unit_id", invite.UnitID))
			return c.JSON(http.StatusConflict, echo.Map{"error": "Bu dairede zaten bir sakin var."})
		}
		log.Error("Invite accept transaction failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	prometheus.RecordInviteOperation("accepted")
	log.Info("Invite accepted",
		zap.Uint("invite_id", invite.ID),
		zap.Uint("unit_id", invite.UnitID),
		zap.String("email", invite.Email))

	return c.JSON(http.StatusCreated, echo.Map{"success": true})
}
