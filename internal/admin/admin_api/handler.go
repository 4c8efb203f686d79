package admin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/youkaichao/WtfTicket/internal/auth"
	"github.com/youkaichao/WtfTicket/internal/checkin"
	"github.com/youkaichao/WtfTicket/internal/logger"
	"github.com/youkaichao/WtfTicket/internal/models"
	"github.com/youkaichao/WtfTicket/internal/qr"
	"github.com/youkaichao/WtfTicket/internal/store"
	"github.com/youkaichao/WtfTicket/internal/utils"
)

// Handler is the staff/admin surface: activity management and door
// check-in.
type Handler struct {
	Store   *store.DB
	CheckIn *checkin.Service
	QR      *qr.Generator
	Logger  *logger.Logger
}

func NewHandler(db *store.DB, checkInSvc *checkin.Service, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{Store: db, CheckIn: checkInSvc, QR: qrGen, Logger: log}
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.Store.ListActivities(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListActivities: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("list failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", activities))
}

type activityRequest struct {
	Name         string `json:"name"`
	Key          string `json:"key"`
	Description  string `json:"description"`
	StartTime    int64  `json:"start_time"`
	EndTime      int64  `json:"end_time"`
	Place        string `json:"place"`
	BookStart    int64  `json:"book_start"`
	BookEnd      int64  `json:"book_end"`
	TotalTickets int    `json:"total_tickets"`
	Status       int    `json:"status"`
	PicURL       string `json:"pic_url"`
}

func (h *Handler) CreateActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid JSON", err.Error()))
		return
	}
	if req.Name == "" || req.Key == "" || req.TotalTickets < 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("name, key and a non-negative capacity are required", ""))
		return
	}

	activity := &models.Activity{
		Name:          req.Name,
		Key:           req.Key,
		Description:   req.Description,
		StartTime:     utils.UnixTimeToTime(req.StartTime),
		EndTime:       utils.UnixTimeToTime(req.EndTime),
		Place:         req.Place,
		BookStart:     utils.UnixTimeToTime(req.BookStart),
		BookEnd:       utils.UnixTimeToTime(req.BookEnd),
		TotalTickets:  req.TotalTickets,
		RemainTickets: req.TotalTickets,
		Status:        req.Status,
		PicURL:        req.PicURL,
	}
	if err := h.Store.CreateActivity(r.Context(), activity); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateActivity: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("create failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("created", activity))
}

// UpdateActivity edits metadata and, when capacity changed, moves
// remain_tickets by the same delta through the capacity-adjust path rather
// than writing the counter directly.
func (h *Handler) UpdateActivity(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid activity id", ""))
		return
	}

	var req activityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid JSON", err.Error()))
		return
	}

	activity, err := h.Store.GetActivityByID(r.Context(), activityID)
	if errors.Is(err, store.ErrNotFound) {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("activity not found", ""))
		return
	}
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateActivity: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("update failed", err.Error()))
		return
	}

	capacityDelta := req.TotalTickets - activity.TotalTickets
	if capacityDelta != 0 && activity.IsPublished() {
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("cannot change capacity of a published activity", ""))
		return
	}
	if capacityDelta != 0 && activity.RemainTickets+capacityDelta < 0 {
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("capacity cannot drop below issued tickets", ""))
		return
	}

	activity.Name = req.Name
	activity.Key = req.Key
	activity.Description = req.Description
	activity.StartTime = utils.UnixTimeToTime(req.StartTime)
	activity.EndTime = utils.UnixTimeToTime(req.EndTime)
	activity.Place = req.Place
	activity.BookStart = utils.UnixTimeToTime(req.BookStart)
	activity.BookEnd = utils.UnixTimeToTime(req.BookEnd)
	activity.Status = req.Status
	activity.PicURL = req.PicURL

	if err := h.Store.UpdateActivity(r.Context(), activity); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateActivity: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("update failed", err.Error()))
		return
	}
	if capacityDelta != 0 {
		if err := h.Store.AdjustCapacity(r.Context(), activityID, capacityDelta); err != nil {
			h.Logger.Error("API", fmt.Sprintf("UpdateActivity: adjust capacity: %v", err))
			utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("capacity adjust failed", err.Error()))
			return
		}
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("updated", nil))
}

func (h *Handler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	activityID, err := strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid activity id", ""))
		return
	}
	if err := h.Store.DeleteActivity(r.Context(), activityID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteActivity: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("delete failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("deleted", nil))
}

type checkInRequest struct {
	ActivityID int64  `json:"activity_id"`
	Ticket     string `json:"ticket,omitempty"`
	StudentID  string `json:"student_id,omitempty"`
}

// CheckInTicket scans one ticket at the door. The request names either the
// ticket unique id or the student id, never both, plus the activity id for
// the student-id mode.
func (h *Handler) CheckInTicket(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tokenString, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authorization required", err.Error()))
		return
	}
	staffID, err := auth.ExtractStaffIDFromJWT(tokenString)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("invalid token", err.Error()))
		return
	}

	var req checkInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid JSON", err.Error()))
		return
	}

	ticket, err := h.CheckIn.CheckIn(r.Context(), checkin.Request{
		TicketID:   req.Ticket,
		StudentID:  req.StudentID,
		ActivityID: req.ActivityID,
	})
	switch {
	case errors.Is(err, checkin.ErrBadLookup):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("ticket and student id: provide one and only one", ""))
		return
	case errors.Is(err, store.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", ""))
		return
	case errors.Is(err, checkin.ErrAlreadyUsed):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("ticket already used", ""))
		return
	case errors.Is(err, checkin.ErrAlreadyCancelled):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("ticket already cancelled", ""))
		return
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("CheckInTicket: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("check-in failed", err.Error()))
		return
	}

	h.Logger.Info("CHECKIN", fmt.Sprintf("staff %s checked in ticket %s", staffID, ticket.UniqueID))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("checked in", map[string]string{
		"ticket":     ticket.UniqueID,
		"student_id": ticket.StudentID,
	}))
	h.Logger.LogAPI(r.Method, r.URL.Path, "200", time.Since(start).String())
}

// ScanTicket checks in a ticket from its scanned QR contents. The payload
// is the encrypted blob produced at issue time, so a forged code fails to
// decode and never reaches the registry.
func (h *Handler) ScanTicket(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tokenString, err := auth.ExtractTokenFromRequest(r)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authorization required", err.Error()))
		return
	}
	staffID, err := auth.ExtractStaffIDFromJWT(tokenString)
	if err != nil {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("invalid token", err.Error()))
		return
	}

	var req struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Payload == "" {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("payload is required", ""))
		return
	}

	uniqueID, err := h.QR.DecodePayload(req.Payload)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("unreadable QR payload", ""))
		return
	}

	ticket, err := h.CheckIn.CheckIn(r.Context(), checkin.Request{TicketID: uniqueID})
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("ticket not found", ""))
		return
	case errors.Is(err, checkin.ErrAlreadyUsed):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("ticket already used", ""))
		return
	case errors.Is(err, checkin.ErrAlreadyCancelled):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("ticket already cancelled", ""))
		return
	case err != nil:
		h.Logger.Error("API", fmt.Sprintf("ScanTicket: %v", err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("check-in failed", err.Error()))
		return
	}

	h.Logger.Info("CHECKIN", fmt.Sprintf("staff %s scanned in ticket %s", staffID, ticket.UniqueID))
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("checked in", map[string]string{
		"ticket":     ticket.UniqueID,
		"student_id": ticket.StudentID,
	}))
	h.Logger.LogAPI(r.Method, r.URL.Path, "200", time.Since(start).String())
}
