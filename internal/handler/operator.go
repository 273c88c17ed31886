package handler

import (
	"net/http"

	"mandil-capture-api/internal/service"
	"mandil-capture-api/pkg/apierror"
	"mandil-capture-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// OperatorHandler serves operator directory lookups.
type OperatorHandler struct {
	deliveryService *service.DeliveryService
}

// NewOperatorHandler creates a new operator handler.
func NewOperatorHandler(deliveryService *service.DeliveryService) *OperatorHandler {
	return &OperatorHandler{
		deliveryService: deliveryService,
	}
}

// Lookup handles GET /api/v1/operators/{code} - resolves a scanned or
// typed input against the mirrored directory (code or username).
func (h *OperatorHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		response.Error(w, apierror.BadRequest("operator code is required"))
		return
	}

	op, err := h.deliveryService.FindOperator(r.Context(), code)
	if err != nil {
		response.Error(w, err)
		return
	}
	if op == nil {
		response.Error(w, apierror.NotFound("operator not found"))
		return
	}

	response.OK(w, op)
}
