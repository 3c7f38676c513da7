package shipmentmentor_test

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/shipmentmentor/pkg/shipmentmentor"
)

func minimalShipment() *shipmentmentor.Shipment {
	return &shipmentmentor.Shipment{
		Courier:      "UPS",
		CourierEmail: "ops@example.com",
		Parcels: []shipmentmentor.Parcel{
			{Name: "Box", Length: 10, Width: 8, Height: 4, Weight: 2.5},
		},
	}
}

func testAddress() *shipmentmentor.Address {
	return &shipmentmentor.Address{
		Address1: "123 Main St",
		City:     "Toronto",
		State:    "ON",
		Zip:      "M5V 1A1",
		Country:  "CA",
	}
}

func requireValidationError(t *testing.T, err error) *shipmentmentor.Error {
	t.Helper()
	require.Error(t, err)
	var smErr *shipmentmentor.Error
	require.ErrorAs(t, err, &smErr)
	assert.Equal(t, shipmentmentor.KindValidation, smErr.Kind)
	return smErr
}

func TestValidateShipment_AppliesDefaults(t *testing.T) {
	in := minimalShipment()

	out, err := shipmentmentor.ValidateShipment(in)

	require.NoError(t, err)
	assert.Equal(t, shipmentmentor.DefaultShipmentStatus, out.Status)
	assert.NotNil(t, out.Metadata)
	require.Len(t, out.Parcels, 1)
	assert.Equal(t, float64(1), out.Parcels[0].Quantity)
	assert.Equal(t, "in", out.Parcels[0].DistanceUnit)
	assert.Equal(t, "lb", out.Parcels[0].WeightUnit)
	assert.NotNil(t, out.Parcels[0].Metadata)

	// The caller's payload is left untouched.
	assert.Empty(t, in.Status)
	assert.Zero(t, in.Parcels[0].Quantity)
}

func TestValidateShipment_KeepsExplicitValues(t *testing.T) {
	in := minimalShipment()
	in.Status = "Delivered"
	in.Parcels[0].Quantity = 3
	in.Parcels[0].DistanceUnit = "cm"
	in.Parcels[0].WeightUnit = "kg"

	out, err := shipmentmentor.ValidateShipment(in)

	require.NoError(t, err)
	assert.Equal(t, "Delivered", out.Status)
	assert.Equal(t, float64(3), out.Parcels[0].Quantity)
	assert.Equal(t, "cm", out.Parcels[0].DistanceUnit)
	assert.Equal(t, "kg", out.Parcels[0].WeightUnit)
}

func TestValidateShipment_NormalizedJSON(t *testing.T) {
	out, err := shipmentmentor.ValidateShipment(&shipmentmentor.Shipment{
		Courier:      "UPS",
		CourierEmail: "ops@example.com",
	})
	require.NoError(t, err)

	body, err := json.Marshal(out)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"parcels": [],
		"expected": null,
		"message": null,
		"orderId": null,
		"status": "InfoReceived",
		"courier": "UPS",
		"courierEmail": "ops@example.com",
		"metadata": {}
	}`, string(body))
}

func TestValidateShipment_AddressDefaultsToNull(t *testing.T) {
	in := minimalShipment()
	in.Origin = testAddress()

	out, err := shipmentmentor.ValidateShipment(in)
	require.NoError(t, err)

	body, err := json.Marshal(out.Origin)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	for _, key := range []string{"name", "company", "address2", "lat", "long", "email", "phone"} {
		v, ok := fields[key]
		assert.True(t, ok, key)
		assert.Nil(t, v, key)
	}
}

func TestValidateShipment_MissingRequired(t *testing.T) {
	tests := []struct {
		name   string
		modify func(s *shipmentmentor.Shipment)
		field  string
	}{
		{"courier", func(s *shipmentmentor.Shipment) { s.Courier = "" }, "courier"},
		{"courierEmail", func(s *shipmentmentor.Shipment) { s.CourierEmail = "" }, "courierEmail"},
		{"origin city", func(s *shipmentmentor.Shipment) { s.Origin = testAddress(); s.Origin.City = "" }, "origin.city"},
		{"destination zip", func(s *shipmentmentor.Shipment) { s.Destination = testAddress(); s.Destination.Zip = "" }, "destination.zip"},
		{"parcel name", func(s *shipmentmentor.Shipment) { s.Parcels[0].Name = "" }, "parcels[0].name"},
		{"parcel weight", func(s *shipmentmentor.Shipment) { s.Parcels[0].Weight = 0 }, "parcels[0].weight"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := minimalShipment()
			tt.modify(s)

			_, err := shipmentmentor.ValidateShipment(s)

			smErr := requireValidationError(t, err)
			assert.Contains(t, err.Error(), tt.field+" is required")
			require.Len(t, smErr.Violations, 1)
			assert.Equal(t, tt.field, smErr.Violations[0].Field)
			assert.Equal(t, "required", smErr.Violations[0].Rule)
		})
	}
}

func TestValidateShipment_AggregatesViolations(t *testing.T) {
	s := minimalShipment()
	s.Courier = ""
	s.CourierEmail = "not-an-email"
	s.Origin = testAddress()
	s.Origin.Country = ""

	_, err := shipmentmentor.ValidateShipment(s)

	smErr := requireValidationError(t, err)
	assert.Len(t, smErr.Violations, 3)
	assert.Contains(t, smErr.Message, "courier is required")
	assert.Contains(t, smErr.Message, "courierEmail must be a valid email")
	assert.Contains(t, smErr.Message, "origin.country is required")
}

func TestValidateShipment_MetadataLimit(t *testing.T) {
	s := minimalShipment()
	s.Metadata = shipmentmentor.Metadata{}
	for i := 0; i < shipmentmentor.MaxMetadataKeys; i++ {
		s.Metadata[fmt.Sprintf("k%d", i)] = i
	}

	_, err := shipmentmentor.ValidateShipment(s)
	require.NoError(t, err)

	s.Metadata["one-too-many"] = true
	_, err = shipmentmentor.ValidateShipment(s)
	requireValidationError(t, err)
	assert.Contains(t, err.Error(), "metadata")
}

func TestValidateShipment_ParcelMetadataLimit(t *testing.T) {
	s := minimalShipment()
	s.Parcels[0].Metadata = shipmentmentor.Metadata{}
	for i := 0; i <= shipmentmentor.MaxMetadataKeys; i++ {
		s.Parcels[0].Metadata[fmt.Sprintf("k%d", i)] = i
	}

	_, err := shipmentmentor.ValidateShipment(s)

	smErr := requireValidationError(t, err)
	assert.Equal(t, "parcels[0].metadata", smErr.Violations[0].Field)
}

func TestValidateShipment_AddressFormats(t *testing.T) {
	s := minimalShipment()
	s.Origin = testAddress()
	s.Origin.Email = shipmentmentor.String("not-an-email")
	s.Origin.Phone = shipmentmentor.String("call-me")

	_, err := shipmentmentor.ValidateShipment(s)

	smErr := requireValidationError(t, err)
	assert.Len(t, smErr.Violations, 2)
	assert.Contains(t, err.Error(), "origin.email must be a valid email")
	assert.Contains(t, err.Error(), "origin.phone must be a valid phone number")

	s.Origin.Email = shipmentmentor.String("a@b.com")
	s.Origin.Phone = shipmentmentor.String("+1 (555) 123-4567")
	_, err = shipmentmentor.ValidateShipment(s)
	assert.NoError(t, err)
}

func TestValidateShipment_Nil(t *testing.T) {
	_, err := shipmentmentor.ValidateShipment(nil)
	requireValidationError(t, err)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, shipmentmentor.IsEmail("a@b.com"))
	assert.False(t, shipmentmentor.IsEmail("not-an-email"))
}

func TestIsPhone(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"+1 (555) 123-4567", true},
		{"555.123.4567", true},
		{"4165551234", true},
		{"call-me", false},
		{"555-CALL", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			assert.Equal(t, tt.valid, shipmentmentor.IsPhone(tt.phone))
		})
	}
}

func TestValidateShipmentUpdate(t *testing.T) {
	out, err := shipmentmentor.ValidateShipmentUpdate(&shipmentmentor.ShipmentUpdate{
		TID:      "SM123",
		Location: "Montreal, QC",
		Time:     "2024-05-01T10:00:00Z",
	})

	require.NoError(t, err)
	assert.Equal(t, shipmentmentor.DefaultUpdateStatus, out.Status)
	assert.Nil(t, out.Lat)
	assert.Nil(t, out.Long)
}

func TestValidateShipmentUpdate_MissingRequired(t *testing.T) {
	_, err := shipmentmentor.ValidateShipmentUpdate(&shipmentmentor.ShipmentUpdate{
		Location: "Montreal, QC",
	})

	smErr := requireValidationError(t, err)
	assert.Len(t, smErr.Violations, 2)
	assert.Contains(t, err.Error(), "tid is required")
	assert.Contains(t, err.Error(), "time is required")
}

func TestValidateTracking(t *testing.T) {
	out, err := shipmentmentor.ValidateTracking(&shipmentmentor.Tracking{
		TID:    "SM123",
		Notify: &shipmentmentor.Notify{},
	})
	require.NoError(t, err)

	body, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"tid": "SM123",
		"title": null,
		"courier": null,
		"orderId": null,
		"customer": null,
		"note": null,
		"notify": {"email": null, "phone": null}
	}`, string(body))
}

func TestValidateTracking_NotifyRequired(t *testing.T) {
	_, err := shipmentmentor.ValidateTracking(&shipmentmentor.Tracking{TID: "SM123"})

	smErr := requireValidationError(t, err)
	require.Len(t, smErr.Violations, 1)
	assert.Equal(t, "notify", smErr.Violations[0].Field)
}

func TestValidateTracking_NotifyFormats(t *testing.T) {
	_, err := shipmentmentor.ValidateTracking(&shipmentmentor.Tracking{
		TID: "SM123",
		Notify: &shipmentmentor.Notify{
			Email: shipmentmentor.String("not-an-email"),
			Phone: shipmentmentor.String("call-me"),
		},
	})

	requireValidationError(t, err)
	assert.Contains(t, err.Error(), "notify.email must be a valid email")
	assert.Contains(t, err.Error(), "notify.phone must be a valid phone number")
}

func TestDecodeShipment_Valid(t *testing.T) {
	s, err := shipmentmentor.DecodeShipment(strings.NewReader(`{
		"courier": "UPS",
		"courierEmail": "ops@example.com",
		"origin": {"address1": "1 Main", "city": "Toronto", "state": "ON", "zip": "M5V", "country": "CA", "lat": null},
		"parcels": [{"name": "Box", "length": 1, "width": 2, "height": 3, "weight": 4, "metadata": {"sku": "A1"}}],
		"metadata": {"anything": {"nested": true}}
	}`))

	require.NoError(t, err)
	assert.Equal(t, "UPS", s.Courier)
	require.NotNil(t, s.Origin)
	assert.Nil(t, s.Origin.Lat)
	assert.Equal(t, "A1", s.Parcels[0].Metadata["sku"])
}

func TestDecodeShipment_RejectsUnknownKeys(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"top level", `{"courier": "UPS", "courierEmail": "a@b.com", "extra": 1}`, "extra"},
		{"address", `{"origin": {"address1": "1 Main", "floor": 3}}`, "floor"},
		{"parcel", `{"parcels": [{"name": "Box", "color": "red"}]}`, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shipmentmentor.DecodeShipment(strings.NewReader(tt.body))

			smErr := requireValidationError(t, err)
			require.Len(t, smErr.Violations, 1)
			assert.Equal(t, "additionalProperties", smErr.Violations[0].Rule)
			assert.Equal(t, tt.field, smErr.Violations[0].Field)
		})
	}
}

func TestDecodeShipment_TypeMismatch(t *testing.T) {
	_, err := shipmentmentor.DecodeShipment(strings.NewReader(`{"courier": 42}`))

	smErr := requireValidationError(t, err)
	assert.Equal(t, "type", smErr.Violations[0].Rule)
	assert.Contains(t, err.Error(), "courier must be string")
}

func TestDecodeShipmentUpdate_RejectsUnknownKeys(t *testing.T) {
	_, err := shipmentmentor.DecodeShipmentUpdate(strings.NewReader(`{"tid": "SM1", "speed": 80}`))
	requireValidationError(t, err)
	assert.Contains(t, err.Error(), "speed")
}

func TestDecodeTracking_RejectsUnknownNotifyKeys(t *testing.T) {
	_, err := shipmentmentor.DecodeTracking(strings.NewReader(`{"tid": "SM1", "notify": {"sms": "555"}}`))
	requireValidationError(t, err)
	assert.Contains(t, err.Error(), "sms")
}

func TestDecodeTracking_Valid(t *testing.T) {
	tr, err := shipmentmentor.DecodeTracking(strings.NewReader(`{"tid": "SM1", "title": null, "notify": {"email": "a@b.com", "phone": null}}`))

	require.NoError(t, err)
	assert.Nil(t, tr.Title)
	require.NotNil(t, tr.Notify)
	assert.Equal(t, "a@b.com", *tr.Notify.Email)
	assert.Nil(t, tr.Notify.Phone)
}

func TestDecodeTracking_RejectsTrailingData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"second object", `{"tid": "SM1", "notify": {}} {"extra": 1}`},
		{"trailing garbage", `{"tid": "SM1", "notify": {}} x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := shipmentmentor.DecodeTracking(strings.NewReader(tt.body))
			requireValidationError(t, err)
		})
	}
}

func TestDecodeTracking_AllowsTrailingWhitespace(t *testing.T) {
	_, err := shipmentmentor.DecodeTracking(strings.NewReader("{\"tid\": \"SM1\", \"notify\": {}}\n\n"))
	require.NoError(t, err)
}

func TestValidateShipment_ZeroQuantityTakesDefault(t *testing.T) {
	s := minimalShipment()
	s.Parcels = []shipmentmentor.Parcel{{Quantity: 0, Name: "Box", Length: 1, Width: 1, Height: 1, Weight: 1}}

	out, err := shipmentmentor.ValidateShipment(s)

	require.NoError(t, err)
	assert.Equal(t, float64(shipmentmentor.DefaultParcelQuantity), out.Parcels[0].Quantity)
}
