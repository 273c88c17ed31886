package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"mandil-capture-api/internal/cache"
	"mandil-capture-api/internal/model"
	"mandil-capture-api/internal/repository"
	"mandil-capture-api/pkg/uid"
)

// DeliveryService handles the capture write path, reporting and the
// operator/shift lookups the capture surface needs.
type DeliveryService struct {
	deliveries repository.DeliveryRepository
	operators  repository.OperatorRepository
	prefs      repository.PreferenceRepository
	sync       *SyncService

	lookupCache cache.Cache
	lookupTTL   time.Duration
}

// NewDeliveryService creates a new delivery service. syncSvc may be nil
// (saves then skip the background sweep trigger); lookupCache may be
// nil (lookups always hit the store).
func NewDeliveryService(
	deliveries repository.DeliveryRepository,
	operators repository.OperatorRepository,
	prefs repository.PreferenceRepository,
	syncSvc *SyncService,
	lookupCache cache.Cache,
	lookupTTL time.Duration,
) *DeliveryService {
	return &DeliveryService{
		deliveries:  deliveries,
		operators:   operators,
		prefs:       prefs,
		sync:        syncSvc,
		lookupCache: lookupCache,
		lookupTTL:   lookupTTL,
	}
}

// SaveDelivery durably persists one compliance check as PENDING and
// returns its local id and uuid. The caller guarantees shift and
// operator code are set; this layer validates only the date format.
// The save is synchronous; the triggered sweep is best-effort and its
// outcome never affects the save result.
func (s *DeliveryService) SaveDelivery(ctx context.Context, d *model.Delivery) (int64, error) {
	if _, err := time.Parse(model.DateLayout, d.RegistrationDate); err != nil {
		return 0, fmt.Errorf("invalid registration date %q: %w", d.RegistrationDate, err)
	}

	if d.UUID == "" {
		d.UUID = uid.New()
	}
	d.SendStatus = model.StatusPending
	d.ErrorMessage = ""

	id, err := s.deliveries.Insert(ctx, d)
	if err != nil {
		return 0, err
	}
	d.ID = id

	if s.sync != nil {
		s.sync.Enqueue()
	}
	return id, nil
}

// DeliveryReport is the reporting surface's view of one date/shift.
type DeliveryReport struct {
	Deliveries []model.Delivery   `json:"deliveries"`
	Counts     model.StatusCounts `json:"counts"`
}

// ListDeliveries returns records for one registration date, optionally
// one shift, newest first, along with sent/unsent counts. Read-only.
func (s *DeliveryService) ListDeliveries(ctx context.Context, date string, shift model.Shift) (*DeliveryReport, error) {
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	deliveries, err := s.deliveries.List(ctx, date, shift)
	if err != nil {
		return nil, err
	}
	counts, err := s.deliveries.CountByStatus(ctx, date, shift)
	if err != nil {
		return nil, err
	}

	return &DeliveryReport{Deliveries: deliveries, Counts: counts}, nil
}

// DeleteDelivery removes a record locally. The remote copy, if the
// record was already sent, is untouched.
func (s *DeliveryService) DeleteDelivery(ctx context.Context, id int64) error {
	d, err := s.deliveries.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if d == nil {
		return ErrNotFound
	}
	return s.deliveries.Delete(ctx, id)
}

// FindOperator resolves a scanned or typed input against the mirrored
// directory, matching code or username. Returns nil when unknown.
// Results pass through the lookup cache when one is configured.
func (s *DeliveryService) FindOperator(ctx context.Context, input string) (*model.Operator, error) {
	if s.lookupCache == nil {
		return s.operators.FindByCodeOrUsername(ctx, input)
	}

	data, err := s.lookupCache.GetOrSet(ctx, input, s.lookupTTL, func() ([]byte, error) {
		op, err := s.operators.FindByCodeOrUsername(ctx, input)
		if err != nil {
			return nil, err
		}
		if op == nil {
			// Unknown inputs are not cached; a directory sync may add them.
			return nil, ErrNotFound
		}
		return json.Marshal(op)
	})
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var op model.Operator
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("corrupt cached operator: %w", err)
	}
	return &op, nil
}

// GetShift returns the persisted session shift, or "" when none was
// selected yet.
func (s *DeliveryService) GetShift(ctx context.Context) (model.Shift, error) {
	value, err := s.prefs.Get(ctx, repository.PrefShiftKey)
	if err != nil {
		return "", err
	}
	return model.Shift(value), nil
}

// SetShift persists the session shift.
func (s *DeliveryService) SetShift(ctx context.Context, shift model.Shift) error {
	if !shift.Valid() {
		return fmt.Errorf("invalid shift %q", shift)
	}
	return s.prefs.Set(ctx, repository.PrefShiftKey, string(shift))
}
