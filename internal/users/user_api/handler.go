package user_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/qr"
	"github.com/youkaichao/WtfTicket/internal/store"
	"github.com/youkaichao/WtfTicket/internal/utils"
)

// Handler serves the user-facing pages' JSON backend: student id binding,
// activity detail and ticket detail.
type Handler struct {
	Store       *store.DB
	QRGenerator *qr.Generator
	Logger      *logger.Logger
}

func NewHandler(db *store.DB, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{Store: db, QRGenerator: qrGen, Logger: log}
}

// GetBinding returns the student id bound to an open id ("" when unbound).
func (h *Handler) GetBinding(w http.ResponseWriter, r *http.Request) {
	openID := r.URL.Query().Get("openid")
	if openID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("openid is required", ""))
		return
	}

	user, err := h.Store.GetUserByOpenID(r.Context(), openID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("user not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetBinding: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]string{
		"student_id": user.StudentID,
	}))
}

// Bind links a student id to an open id. One student id can only be bound
// to one account at a time.
func (h *Handler) Bind(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpenID    string `json:"open_id"`
		StudentID string `json:"student_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid JSON", err.Error()))
		return
	}
	if req.OpenID == "" || req.StudentID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("open_id and student_id are required", ""))
		return
	}

	if _, err := h.Store.GetOrCreateUserByOpenID(r.Context(), req.OpenID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Bind: ensure user: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("bind failed", err.Error()))
		return
	}

	err := h.Store.BindStudentID(r.Context(), req.OpenID, req.StudentID)
	if errors.Is(err, store.ErrStudentIDTaken) {
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("student id already bound to another account", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Bind: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("bind failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("bound", nil))
}

func activityDetail(a *models.Activity) map[string]interface{} {
	return map[string]interface{}{
		"name":           a.Name,
		"key":            a.Key,
		"description":    a.Description,
		"startTime":      utils.TimeToUnix(a.StartTime),
		"endTime":        utils.TimeToUnix(a.EndTime),
		"place":          a.Place,
		"bookStart":      utils.TimeToUnix(a.BookStart),
		"bookEnd":        utils.TimeToUnix(a.BookEnd),
		"totalTickets":   a.TotalTickets,
		"remainTickets":  a.RemainTickets,
		"picUrl":         a.PicURL,
		"currentTime":    time.Now().Unix(),
	}
}

// GetActivityDetail only serves published activities.
func (h *Handler) GetActivityDetail(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid activity id", ""))
		return
	}

	activity, err := h.Store.GetActivityByID(r.Context(), activityID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("activity not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetActivityDetail: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", err.Error()))
		return
	}
	if !activity.IsPublished() {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("activity not published", ""))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", activityDetail(activity)))
}

// GetTicketDetail returns a ticket with its QR code. Ownership is checked
// by student id, not open id: one student can reach their ticket from any
// account they've bound.
func (h *Handler) GetTicketDetail(w http.ResponseWriter, r *http.Request) {
	openID := r.URL.Query().Get("openid")
	uniqueID := r.URL.Query().Get("ticket")
	if openID == "" || uniqueID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("openid and ticket are required", ""))
		return
	}

	ticket, err := h.Store.FindByUniqueID(r.Context(), uniqueID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicketDetail: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", err.Error()))
		return
	}

	user, err := h.Store.GetUserByOpenID(r.Context(), openID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("user not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicketDetail: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", err.Error()))
		return
	}
	if user.StudentID == "" || user.StudentID != ticket.StudentID {
		utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse("you don't have permission to view this ticket", ""))
		return
	}

	activity, err := h.Store.GetActivityByID(r.Context(), ticket.ActivityID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("activity not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicketDetail: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("lookup failed", err.Error()))
		return
	}

	qrBytes, err := h.QRGenerator.GenerateTicketQR(ticket)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetTicketDetail: qr generation: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("qr generation failed", err.Error()))
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", map[string]interface{}{
		"activityName": activity.Name,
		"activityKey":  activity.Key,
		"place":        activity.Place,
		"uniqueId":     ticket.UniqueID,
		"startTime":    utils.TimeToUnix(activity.StartTime),
		"endTime":      utils.TimeToUnix(activity.EndTime),
		"currentTime":  time.Now().Unix(),
		"status":       ticket.Status,
		"qrCode":       qrBytes, // base64 in JSON
	}))
}
