package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// ShippingAddress is the delivery address captured at checkout. It is stored
// as jsonb on the order.
type ShippingAddress struct {
	FullName     string `json:"full_name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	Pincode      string `json:"pincode" validate:"required"`
}

const pincodeDigits = 6

// Normalized trims every field.
func (a ShippingAddress) Normalized() ShippingAddress {
	return ShippingAddress{
		FullName:     strings.TrimSpace(a.FullName),
		Phone:        strings.TrimSpace(a.Phone),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		AddressLine2: strings.TrimSpace(a.AddressLine2),
		City:         strings.TrimSpace(a.City),
		State:        strings.TrimSpace(a.State),
		Pincode:      strings.TrimSpace(a.Pincode),
	}
}

// Missing returns the json names of blank required fields, in form order.
func (a ShippingAddress) Missing() []string {
	required := []struct {
		name  string
		value string
	}{
		{"full_name", a.FullName},
		{"phone", a.Phone},
		{"address_line1", a.AddressLine1},
		{"city", a.City},
		{"state", a.State},
		{"pincode", a.Pincode},
	}
	var missing []string
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

// ValidPincode reports whether the pincode is exactly six ASCII digits.
func (a ShippingAddress) ValidPincode() bool {
	pin := strings.TrimSpace(a.Pincode)
	if len(pin) != pincodeDigits {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// Value marshals the address for the jsonb column.
func (a ShippingAddress) Value() (driver.Value, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("shipping address: %w", err)
	}
	return string(payload), nil
}

// Scan decodes the jsonb column.
func (a *ShippingAddress) Scan(value any) error {
	if value == nil {
		*a = ShippingAddress{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("shipping address: unsupported scan type %T", value)
	}
	var decoded ShippingAddress
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("shipping address: %w", err)
	}
	*a = decoded
	return nil
}
