package shipmentmentor

import "encoding/json"

// Default values filled in by Normalize.
const (
	DefaultShipmentStatus = "InfoReceived"
	DefaultUpdateStatus   = "InTransit"
	DefaultParcelQuantity = 1
	DefaultDistanceUnit   = "in"
	DefaultWeightUnit     = "lb"

	// MaxMetadataKeys caps the size of every metadata bag.
	MaxMetadataKeys = 20
)

// Metadata is a free-form key/value bag attached to shipments and parcels.
type Metadata map[string]any

// ============================================================================
// Shipment (POST /v1/shipment/create/)
// ============================================================================

// Address is a postal address with optional contact and geolocation fields.
type Address struct {
	Name     *string  `json:"name"`
	Company  *string  `json:"company"`
	Address1 string   `json:"address1" validate:"required"`
	Address2 *string  `json:"address2"`
	City     string   `json:"city" validate:"required"`
	State    string   `json:"state" validate:"required"`
	Zip      string   `json:"zip" validate:"required"`
	Country  string   `json:"country" validate:"required"`
	Lat      *float64 `json:"lat"`
	Long     *float64 `json:"long"`
	Email    *string  `json:"email" validate:"omitempty,email"`
	Phone    *string  `json:"phone" validate:"omitempty,phone"`
}

// Parcel is a physical package within a shipment. Dimensions and weight
// are required; a zero value counts as absent.
type Parcel struct {
	ID *string `json:"id"`
	// Quantity defaults to 1; an explicit 0 also takes the default.
	Quantity     float64  `json:"quantity" validate:"required"`
	Name         string   `json:"name" validate:"required"`
	Length       float64  `json:"length" validate:"required"`
	Width        float64  `json:"width" validate:"required"`
	Height       float64  `json:"height" validate:"required"`
	Weight       float64  `json:"weight" validate:"required"`
	DistanceUnit string   `json:"distanceUnit" validate:"required"`
	WeightUnit   string   `json:"weightUnit" validate:"required"`
	Metadata     Metadata `json:"metadata" validate:"max=20"`
}

// Shipment is the payload for SendShipment.
type Shipment struct {
	Origin      *Address `json:"origin,omitempty"`
	Destination *Address `json:"destination,omitempty"`
	Parcels     []Parcel `json:"parcels" validate:"dive"`
	Expected    *string  `json:"expected"`
	Message     *string  `json:"message"`
	OrderID     *string  `json:"orderId"`
	// Status defaults to InfoReceived; an empty string also takes the default.
	Status       string   `json:"status" validate:"required"`
	Courier      string   `json:"courier" validate:"required"`
	CourierEmail string   `json:"courierEmail" validate:"required,email"`
	Metadata     Metadata `json:"metadata" validate:"max=20"`
}

// Normalize fills absent optional fields with their defaults.
func (s *Shipment) Normalize() {
	if s.Parcels == nil {
		s.Parcels = []Parcel{}
	}
	for i := range s.Parcels {
		s.Parcels[i].Normalize()
	}
	if s.Status == "" {
		s.Status = DefaultShipmentStatus
	}
	if s.Metadata == nil {
		s.Metadata = Metadata{}
	}
}

// Normalize fills absent optional fields with their defaults.
func (p *Parcel) Normalize() {
	if p.Quantity == 0 {
		p.Quantity = DefaultParcelQuantity
	}
	if p.DistanceUnit == "" {
		p.DistanceUnit = DefaultDistanceUnit
	}
	if p.WeightUnit == "" {
		p.WeightUnit = DefaultWeightUnit
	}
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}
}

func (s *Shipment) clone() *Shipment {
	c := *s
	if s.Origin != nil {
		o := *s.Origin
		c.Origin = &o
	}
	if s.Destination != nil {
		d := *s.Destination
		c.Destination = &d
	}
	if s.Parcels != nil {
		c.Parcels = make([]Parcel, len(s.Parcels))
		copy(c.Parcels, s.Parcels)
	}
	return &c
}

// ============================================================================
// Shipment update (POST /v1/shipment/update/)
// ============================================================================

// ShipmentUpdate is the payload for UpdateShipment.
type ShipmentUpdate struct {
	TID string `json:"tid" validate:"required"`
	// Status defaults to InTransit; an empty string also takes the default.
	Status   string   `json:"status" validate:"required"`
	Location string   `json:"location" validate:"required"`
	Lat      *float64 `json:"lat"`
	Long     *float64 `json:"long"`
	Time     string   `json:"time" validate:"required"`
}

// Normalize fills absent optional fields with their defaults.
func (u *ShipmentUpdate) Normalize() {
	if u.Status == "" {
		u.Status = DefaultUpdateStatus
	}
}

// ============================================================================
// Tracking (POST /v1/trackings/add/)
// ============================================================================

// Notify holds the contacts notified about tracking changes. Both may be null.
type Notify struct {
	Email *string `json:"email" validate:"omitempty,email"`
	Phone *string `json:"phone" validate:"omitempty,phone"`
}

// Tracking is the payload for AddTracking.
type Tracking struct {
	TID      string  `json:"tid" validate:"required"`
	Title    *string `json:"title"`
	Courier  *string `json:"courier"`
	OrderID  *string `json:"orderId"`
	Customer *string `json:"customer"`
	Note     *string `json:"note"`
	Notify   *Notify `json:"notify" validate:"required"`
}

// Normalize is a no-op: every optional tracking field defaults to null.
func (t *Tracking) Normalize() {}

func (t *Tracking) clone() *Tracking {
	c := *t
	if t.Notify != nil {
		n := *t.Notify
		c.Notify = &n
	}
	return &c
}

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the wrapper every Shipment Mentor response uses.
type Envelope struct {
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// StatusSuccess is the envelope status of a successful call.
const StatusSuccess = "success"

// StatusFailed is the envelope status the relay reports for failed calls.
const StatusFailed = "failed"

// String returns s as a *string, for populating nullable fields.
func String(s string) *string {
	return &s
}

// Float returns f as a *float64, for populating nullable fields.
func Float(f float64) *float64 {
	return &f
}
