package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"mandil-capture-api/internal/model"
	"mandil-capture-api/internal/repository"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()

	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

// fakeGateway is a scriptable Gateway for service tests.
type fakeGateway struct {
	mu sync.Mutex

	operators []model.Operator
	fetchErr  error

	// submitFn decides each submission's outcome; nil accepts everything.
	submitFn func(d *model.Delivery) error

	// submitted records the uuids pushed, in order.
	submitted []string

	// entered/release, when set, let a test hold a submission in flight.
	entered chan struct{}
	release chan struct{}
}

func (f *fakeGateway) FetchOperators(ctx context.Context) ([]model.Operator, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.operators, nil
}

func (f *fakeGateway) SubmitDelivery(ctx context.Context, d *model.Delivery) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	f.submitted = append(f.submitted, d.UUID)
	f.mu.Unlock()

	if f.submitFn != nil {
		return f.submitFn(d)
	}
	return nil
}

func (f *fakeGateway) submittedUUIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.submitted...)
}

func seedDelivery(t *testing.T, store repository.Store, uuid, date string) int64 {
	t.Helper()

	id, err := store.Deliveries().Insert(context.Background(), &model.Delivery{
		UUID:               uuid,
		RegistrationDate:   date,
		Shift:              model.ShiftDay,
		OperatorCode:       "OP-001",
		ProductDisplayed:   true,
		ApronClean:         true,
		ApronGoodCondition: true,
	})
	require.NoError(t, err)
	return id
}
