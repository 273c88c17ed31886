package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"mandil-capture-api/internal/model"
	"mandil-capture-api/internal/service"
	"mandil-capture-api/pkg/apierror"
	"mandil-capture-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// DeliveryHandler handles delivery capture and reporting requests.
type DeliveryHandler struct {
	deliveryService *service.DeliveryService
}

// NewDeliveryHandler creates a new delivery handler.
func NewDeliveryHandler(deliveryService *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{
		deliveryService: deliveryService,
	}
}

// createDeliveryRequest is the capture submission body. The checklist
// booleans default to true, matching the physical form where a worker
// unticks only what failed.
type createDeliveryRequest struct {
	RegistrationDate   string      `json:"registration_date"`
	Shift              model.Shift `json:"shift"`
	OperatorCode       string      `json:"operator_code"`
	ProductDisplayed   *bool       `json:"product_displayed"`
	ApronClean         *bool       `json:"apron_clean"`
	ApronGoodCondition *bool       `json:"apron_good_condition"`
	Notes              string      `json:"notes"`
}

// Create handles POST /api/v1/deliveries
func (h *DeliveryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	req.OperatorCode = strings.TrimSpace(req.OperatorCode)
	if req.OperatorCode == "" {
		response.Error(w, apierror.ValidationError("operator_code is required",
			apierror.FieldError{Field: "operator_code", Message: "must not be empty"}))
		return
	}

	// No shift in the body falls back to the persisted session shift.
	shift := req.Shift
	if shift == "" {
		saved, err := h.deliveryService.GetShift(r.Context())
		if err != nil {
			response.Error(w, err)
			return
		}
		shift = saved
	}
	if !shift.Valid() {
		response.Error(w, apierror.ValidationError("shift is required",
			apierror.FieldError{Field: "shift", Message: "must be DAY or NIGHT (or selected for the session)"}))
		return
	}

	d := &model.Delivery{
		RegistrationDate:   req.RegistrationDate,
		Shift:              shift,
		OperatorCode:       req.OperatorCode,
		ProductDisplayed:   boolOrDefault(req.ProductDisplayed, true),
		ApronClean:         boolOrDefault(req.ApronClean, true),
		ApronGoodCondition: boolOrDefault(req.ApronGoodCondition, true),
		Notes:              strings.TrimSpace(req.Notes),
	}

	id, err := h.deliveryService.SaveDelivery(r.Context(), d)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.Created(w, map[string]interface{}{
		"id":   id,
		"uuid": d.UUID,
	})
}

// List handles GET /api/v1/deliveries?date=YYYY-MM-DD&shift=DAY|NIGHT
func (h *DeliveryHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		response.Error(w, apierror.BadRequest("date query parameter is required"))
		return
	}

	shift := model.Shift(r.URL.Query().Get("shift"))
	if shift != "" && !shift.Valid() {
		response.Error(w, apierror.BadRequest("shift must be DAY or NIGHT"))
		return
	}

	report, err := h.deliveryService.ListDeliveries(r.Context(), date, shift)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.OK(w, report)
}

// Delete handles DELETE /api/v1/deliveries/{id}
func (h *DeliveryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid delivery id"))
		return
	}

	if err := h.deliveryService.DeleteDelivery(r.Context(), id); err != nil {
		if err == service.ErrNotFound {
			response.Error(w, apierror.NotFound("delivery not found"))
			return
		}
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// GetShift handles GET /api/v1/shift
func (h *DeliveryHandler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.deliveryService.GetShift(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]interface{}{
		"shift": shift,
	})
}

// shiftRequest is the body for PUT /api/v1/shift.
type shiftRequest struct {
	Shift model.Shift `json:"shift"`
}

// SetShift handles PUT /api/v1/shift
func (h *DeliveryHandler) SetShift(w http.ResponseWriter, r *http.Request) {
	var req shiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}

	if err := h.deliveryService.SetShift(r.Context(), req.Shift); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"shift": req.Shift,
	})
}

func boolOrDefault(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
