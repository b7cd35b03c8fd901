package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"storagechat/internal/chat/service"
	apperrors "storagechat/pkg/errors"
	httputil "storagechat/pkg/http"
	"storagechat/pkg/logger"
	"storagechat/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type IdentityRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type MessageRequest struct {
	Message string `json:"message"`
}

type ChoiceRequest struct {
	Choice string `json:"choice"`
}

type SessionHandler struct {
	service service.ChatService
	log     *logger.Logger
}

func NewSessionHandler(service service.ChatService, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		service: service,
		log:     log,
	}
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	view, err := h.service.Start(r.Context())
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, view); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var after int64
	if afterStr := r.URL.Query().Get("after"); afterStr != "" {
		var err error
		after, err = strconv.ParseInt(afterStr, 10, 64)
		if err != nil {
			h.writeError(w, "Get", apperrors.InvalidInput(fmt.Sprintf("invalid after parameter: %s", afterStr)))
			return
		}
	}

	view, err := h.service.Get(r.Context(), ps.ByName("id"), after)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	if err := httputil.WriteSuccess(w, view); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.End(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}
	httputil.WriteNoContent(w)
}

func (h *SessionHandler) SubmitIdentity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req IdentityRequest
	if !h.decode(w, r, "SubmitIdentity", &req) {
		return
	}

	snap, err := h.service.SubmitIdentity(r.Context(), ps.ByName("id"), req.Name, req.Email)
	h.writeResult(w, "SubmitIdentity", snap, err)
}

func (h *SessionHandler) SendMessage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req MessageRequest
	if !h.decode(w, r, "SendMessage", &req) {
		return
	}

	result, err := h.service.SendMessage(r.Context(), ps.ByName("id"), req.Message)
	h.writeResult(w, "SendMessage", result, err)
}

func (h *SessionHandler) QuickAction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snap, err := h.service.QuickAction(r.Context(), ps.ByName("id"), ps.ByName("action"))
	if err != nil {
		h.writeError(w, "QuickAction", err)
		return
	}

	// the reply lands in the transcript after the quick-action delay
	if err := httputil.WriteJSON(w, http.StatusAccepted, httputil.SuccessResponse{Data: snap}); err != nil {
		h.log.Error("failed to write JSON response", "handler", "QuickAction", "operation", "WriteJSON", "error", err)
	}
}

func (h *SessionHandler) ChooseBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req ChoiceRequest
	if !h.decode(w, r, "ChooseBooking", &req) {
		return
	}

	snap, err := h.service.ChooseBooking(r.Context(), ps.ByName("id"), req.Choice)
	h.writeResult(w, "ChooseBooking", snap, err)
}

func (h *SessionHandler) SubmitBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req model.BookingDraft
	if !h.decode(w, r, "SubmitBooking", &req) {
		return
	}

	snap, err := h.service.SubmitBooking(r.Context(), ps.ByName("id"), req)
	h.writeResult(w, "SubmitBooking", snap, err)
}

func (h *SessionHandler) ConfirmBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.ConfirmBooking(r.Context(), ps.ByName("id"))
	h.writeResult(w, "ConfirmBooking", result, err)
}

func (h *SessionHandler) DismissDisclaimer(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snap, err := h.service.DismissDisclaimer(r.Context(), ps.ByName("id"))
	h.writeResult(w, "DismissDisclaimer", snap, err)
}

func (h *SessionHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	snap, err := h.service.CancelBooking(r.Context(), ps.ByName("id"))
	h.writeResult(w, "CancelBooking", snap, err)
}

func (h *SessionHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/sessions", h.Create)
	router.GET("/api/v1/sessions/:id", h.Get)
	router.DELETE("/api/v1/sessions/:id", h.Delete)
	router.POST("/api/v1/sessions/:id/identity", h.SubmitIdentity)
	router.POST("/api/v1/sessions/:id/messages", h.SendMessage)
	router.POST("/api/v1/sessions/:id/quick-actions/:action", h.QuickAction)
	router.POST("/api/v1/sessions/:id/booking/choice", h.ChooseBooking)
	router.POST("/api/v1/sessions/:id/booking/submit", h.SubmitBooking)
	router.POST("/api/v1/sessions/:id/booking/confirm", h.ConfirmBooking)
	router.POST("/api/v1/sessions/:id/booking/dismiss", h.DismissDisclaimer)
	router.POST("/api/v1/sessions/:id/booking/cancel", h.CancelBooking)
}

func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, handler string, target any) bool {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", handler, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *SessionHandler) writeResult(w http.ResponseWriter, handler string, data any, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *SessionHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}
