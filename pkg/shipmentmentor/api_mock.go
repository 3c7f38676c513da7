package shipmentmentor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MockAPIClient is a mock implementation of APIClient for testing and offline use.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnCreateShipment func(ctx context.Context, s *Shipment) (json.RawMessage, error)
	OnUpdateShipment func(ctx context.Context, u *ShipmentUpdate) (json.RawMessage, error)
	OnAddTracking    func(ctx context.Context, t *Tracking) (json.RawMessage, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// CreateShipment returns a generated shipment id and tracking id.
func (m *MockAPIClient) CreateShipment(ctx context.Context, s *Shipment) (json.RawMessage, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, s)
	}

	return json.Marshal(map[string]any{
		"id":      "sm-ship-" + uuid.New().String()[:8],
		"tid":     "SM" + uuid.New().String()[:10],
		"status":  s.Status,
		"courier": s.Courier,
		"orderId": s.OrderID,
	})
}

// UpdateShipment echoes the update.
func (m *MockAPIClient) UpdateShipment(ctx context.Context, u *ShipmentUpdate) (json.RawMessage, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	if m.OnUpdateShipment != nil {
		return m.OnUpdateShipment(ctx, u)
	}

	return json.Marshal(map[string]any{
		"tid":      u.TID,
		"status":   u.Status,
		"location": u.Location,
		"time":     u.Time,
	})
}

// AddTracking returns a generated tracking entry id.
func (m *MockAPIClient) AddTracking(ctx context.Context, t *Tracking) (json.RawMessage, error) {
	if err := m.simulate(ctx); err != nil {
		return nil, err
	}

	if m.OnAddTracking != nil {
		return m.OnAddTracking(ctx, t)
	}

	return json.Marshal(map[string]any{
		"id":  "sm-trk-" + uuid.New().String()[:8],
		"tid": t.TID,
	})
}

func (m *MockAPIClient) simulate(ctx context.Context) error {
	if m.SimulateLatency > 0 {
		select {
		case <-ctx.Done():
			return newError(KindTransport, "").withCause(ctx.Err())
		case <-time.After(m.SimulateLatency):
		}
	}

	if m.SimulateErrors {
		return newError(KindRemote, "simulated API error")
	}
	return nil
}

var _ APIClient = (*MockAPIClient)(nil)
