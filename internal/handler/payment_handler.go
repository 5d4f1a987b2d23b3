package handler

import (
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
)

// MyPayments returns every due of the resident's unit together with the
// resident's submission state for it. Dues with no payment row come back
// as not_uploaded so the client can render the full period list.
func MyPayments(c echo.Context) error {
	log := logger.FromContext(c)
	residentID := middleware.UserID(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var unit model.Unit
	if err := database.GetDB().
		Where("resident_id = ?", residentID).
		Preload("Apartment").
		First(&unit).Error; err != nil {
		// No unit assigned yet; the dashboard renders an empty state.
		return c.JSON(http.StatusOK, echo.Map{
			"unit":      nil,
			"apartment": nil,
			"dues":      []interface{}{},
		})
	}

	var dues []model.Due
	if err := database.GetDB().
		Where("apartment_id = ?", unit.ApartmentID).
		Order("year DESC, month DESC").
		Find(&dues).Error; err != nil {
		log.Error("Failed to load dues for resident", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	var payments []model.Payment
	if err := database.GetDB().
		Where("unit_id = ? AND resident_id = ?", unit.ID, residentID).
		Find(&payments).Error; err != nil {
		log.Error("Failed to load payments for resident", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	byDue := make(map[uint]*model.Payment, len(payments))
	for i := range payments {
		byDue[payments[i].DueID] = &payments[i]
	}

	type dueWithPayment struct {
		model.Due
		Status  string         `json:"status"`
		Payment *model.Payment `json:"payment,omitempty"`
	}

	out := make([]dueWithPayment, 0, len(dues))
	for _, d := range dues {
		row := dueWithPayment{Due: d, Status: "not_uploaded"}
		if p, ok := byDue[d.ID]; ok {
			row.Status = strings.ToLower(string(p.Status))
			row.Payment = p
		}
		out = append(out, row)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"unit":      unit,
		"apartment": unit.Apartment,
		"dues":      out,
	})
}

// UploadReceipt records a receipt for a due. A pending or approved
// submission blocks re-upload; a rejected one is reset in place, back to
// pending with the new receipt.
func UploadReceipt(c echo.Context) error {
	log := logger.FromContext(c)
	residentID := middleware.UserID(c)

	var req struct {
		DueID      uint   `json:"dueId"`
		ReceiptURL string `json:"receiptUrl"`
		ReceiptKey string `json:"receiptKey"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse receipt upload request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.DueID == 0 || strings.TrimSpace(req.ReceiptURL) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Aidat ve dekont zorunludur."})
	}

	var unit model.Unit
	if err := database.GetDB().
		Where("resident_id = ?", residentID).
		First(&unit).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Size atanmış bir daire bulunamadı."})
	}

	// The due must belong to the resident's own building.
	var due model.Due
	if err := database.GetDB().
		Where("id = ? AND apartment_id = ?", req.DueID, unit.ApartmentID).
		First(&due).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Aidat bulunamadı."})
	}

	now := time.Now()
	var existing model.Payment
	err := database.GetDB().
		Where("due_id = ? AND unit_id = ?", req.DueID, unit.ID).
		First(&existing).Error
	if err == nil {
		switch existing.Status {
		case model.PaymentPending:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Dekontunuz inceleniyor, bekleyiniz."})
		case model.PaymentApproved:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Bu aidat zaten onaylanmış."})
		case model.PaymentRejected:
			// Re-upload resets the same row; no history rows.
			updates := map[string]interface{}{
				"status":           model.PaymentPending,
				"receipt_url":      req.ReceiptURL,
				"receipt_key":      nil,
				"rejection_reason": nil,
				"reviewed_at":      nil,
				"uploaded_at":      now,
			}
			if key := strings.TrimSpace(req.ReceiptKey); key != "" {
				updates["receipt_key"] = key
			}
			defer prometheus.TrackDBOperation("update")(time.Now())
			if err := database.GetDB().Model(&existing).Updates(updates).Error; err != nil {
				log.Error("Failed to reset rejected payment", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
			}
			prometheus.RecordPaymentOperation("reuploaded")
			log.Info("Rejected payment re-uploaded",
				zap.Uint("payment_id", existing.ID),
				zap.Uint("due_id", req.DueID))
			database.GetDB().First(&existing, existing.ID)
			return c.JSON(http.StatusOK, existing)
		}
	}

	payment := model.Payment{
		DueID:      req.DueID,
		UnitID:     unit.ID,
		ResidentID: residentID,
		Status:     model.PaymentPending,
		ReceiptURL: req.ReceiptURL,
		UploadedAt: now,
	}
	if key := strings.TrimSpace(req.ReceiptKey); key != "" {
		payment.ReceiptKey = &key
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if err := database.GetDB().Create(&payment).Error; err != nil {
		log.Error("Failed to create payment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	prometheus.RecordPaymentOperation("uploaded")
	log.Info("Receipt uploaded",
		zap.Uint("payment_id", payment.ID),
		zap.Uint("due_id", req.DueID),
		zap.Uint("unit_id", unit.ID))

	return c.JSON(http.StatusCreated, payment)
}

// ListApartmentPayments returns submissions for an apartment the admin
// owns, optionally filtered to one due.
func ListApartmentPayments(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	apartmentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	if _, err := findOwnedApartment(database.GetDB(), apartmentID, managerID); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Apartman bulunamadı."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	query := database.GetDB().
		Joins("JOIN units ON units.id = payments.unit_id").
		Where("units.apartment_id = ?", apartmentID).
		Preload("Due").
		Preload("Unit").
		Preload("Resident").
		Order("payments.uploaded_at DESC")

	if dueID := c.QueryParam("dueId"); dueID != "" {
		query = query.Where("payments.due_id = ?", dueID)
	}

	var payments []model.Payment
	if err := query.Find(&payments).Error; err != nil {
		log.Error("Failed to list payments", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	return c.JSON(http.StatusOK, payments)
}

// ReviewPayment approves or rejects a pending submission. Rejection
// requires a reason the resident will see. Only the manager of the
// payment's building may review it.
func ReviewPayment(c echo.Context) error {
	log := logger.FromContext(c)
	managerID := middleware.UserID(c)

	paymentID, err := paramUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment ID"})
	}

	var req struct {
		Action          string `json:"action"`
		RejectionReason string `json:"rejectionReason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Action != "approve" && req.Action != "reject" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Geçersiz işlem."})
	}

	reason := strings.TrimSpace(req.RejectionReason)
	if req.Action == "reject" && reason == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Red sebebi zorunludur."})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var payment model.Payment
	if err := database.GetDB().
		Preload("Unit.Apartment").
		Preload("Due").
		Preload("Resident").
		First(&payment, paymentID).Error; err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Ödeme bulunamadı."})
	}

	if payment.Unit.Apartment.ManagerID != managerID {
		log.Warn("Payment review denied",
			zap.Uint("payment_id", paymentID),
			zap.Uint("manager_id", managerID))
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Bu işlem için yetkiniz yok."})
	}

	if payment.Status != model.PaymentPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Sadece bekleyen ödemeler incelenebilir."})
	}

	now := time.Now()
	approved := req.Action == "approve"
	updates := map[string]interface{}{
		"reviewed_at": now,
	}
	if approved {
		updates["status"] = model.PaymentApproved
		updates["rejection_reason"] = nil
	} else {
		updates["status"] = model.PaymentRejected
		updates["rejection_reason"] = reason
	}

	if err := database.GetDB().Model(&payment).Updates(updates).Error; err != nil {
		log.Error("Failed to review payment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Sunucu hatası oluştu."})
	}

	if approved {
		prometheus.RecordPaymentOperation("approved")
	} else {
		prometheus.RecordPaymentOperation("rejected")
	}

	// Notification is best-effort; the review stands either way.
	if payment.Resident != nil {
		sendErr := mail.SendPaymentStatus(payment.Resident.Email, payment.Resident.Name,
			approved, payment.Due.Month, payment.Due.Year, payment.Due.Amount, reason)
		prometheus.RecordEmail("payment_status", sendErr)
		if sendErr != nil {
			log.Error("Failed to send payment status email", zap.Error(sendErr))
		}
	}

	log.Info("Payment reviewed",
		zap.Uint("payment_id", paymentID),
		zap.String("action", req.Action))

	database.GetDB().First(&payment, paymentID)
	return c.JSON(http.StatusOK, payment)
}
