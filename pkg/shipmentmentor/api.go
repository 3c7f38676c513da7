package shipmentmentor

import (
	"context"
	"encoding/json"
)

// Remote paths of the Shipment Mentor REST API.
const (
	PathShipmentCreate = "/v1/shipment/create/"
	PathShipmentUpdate = "/v1/shipment/update/"
	PathTrackingAdd    = "/v1/trackings/add/"
)

// APIClient performs the remote calls for already validated payloads.
// HTTPAPIClient talks to the real service; MockAPIClient is used in
// tests and offline mode.
type APIClient interface {
	// CreateShipment posts a normalized shipment and returns the envelope payload.
	CreateShipment(ctx context.Context, s *Shipment) (json.RawMessage, error)

	// UpdateShipment posts a status update for an existing shipment.
	UpdateShipment(ctx context.Context, u *ShipmentUpdate) (json.RawMessage, error)

	// AddTracking registers a tracking entry.
	AddTracking(ctx context.Context, t *Tracking) (json.RawMessage, error)
}
