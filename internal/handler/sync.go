package handler

import (
	"net/http"

	"mandil-capture-api/internal/service"
	"mandil-capture-api/pkg/apierror"
	"mandil-capture-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// SyncHandler exposes the sync engine: delivery sweeps, single-record
// retries and operator directory pulls.
type SyncHandler struct {
	syncService     *service.SyncService
	operatorService *service.OperatorSyncService
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncService *service.SyncService, operatorService *service.OperatorSyncService) *SyncHandler {
	return &SyncHandler{
		syncService:     syncService,
		operatorService: operatorService,
	}
}

// SweepDeliveries handles POST /api/v1/sync/deliveries?date=YYYY-MM-DD
// A sweep already in flight yields zero stats, not an error; callers
// re-trigger when they need a fresh sweep.
func (h *SyncHandler) SweepDeliveries(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	stats, err := h.syncService.SyncPending(r.Context(), date)
	if err != nil {
		response.Error(w, apierror.InternalError(err.Error()))
		return
	}

	response.OK(w, stats)
}

// RetryDelivery handles POST /api/v1/sync/deliveries/{id}
func (h *SyncHandler) RetryDelivery(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid delivery id"))
		return
	}

	if err := h.syncService.SyncOne(r.Context(), id); err != nil {
		switch err {
		case service.ErrNotFound:
			response.Error(w, apierror.NotFound("delivery not found"))
		case service.ErrSyncBusy:
			response.Error(w, apierror.Conflict("a sync is already in progress"))
		default:
			// Submission failed; the error is already persisted on the
			// record for the supervisor panel.
			response.Error(w, apierror.BadGateway(err.Error()))
		}
		return
	}

	response.OK(w, map[string]interface{}{
		"id":     id,
		"status": "SENT",
	})
}

// SyncOperators handles POST /api/v1/sync/operators
func (h *SyncHandler) SyncOperators(w http.ResponseWriter, r *http.Request) {
	count, err := h.operatorService.SyncOperators(r.Context())
	if err != nil {
		if err == service.ErrSyncBusy {
			response.Error(w, apierror.Conflict("an operator sync is already in progress"))
			return
		}
		response.Error(w, apierror.BadGateway(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"count": count,
	})
}

// Status handles GET /api/v1/sync/status
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]interface{}{
		"syncing_deliveries": h.syncService.IsSyncing(),
		"syncing_operators":  h.operatorService.IsSyncing(),
	})
}
