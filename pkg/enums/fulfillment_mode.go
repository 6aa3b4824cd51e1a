package enums

import "fmt"

// FulfillmentMode says whether the order leaves with a courier or is picked up.
type FulfillmentMode string

const (
	FulfillmentDelivery FulfillmentMode = "delivery"
	FulfillmentPickup   FulfillmentMode = "pickup"
)

var validFulfillmentModes = []FulfillmentMode{
	FulfillmentDelivery,
	FulfillmentPickup,
}

// String implements fmt.Stringer.
func (f FulfillmentMode) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfillmentMode.
func (f FulfillmentMode) IsValid() bool {
	for _, candidate := range validFulfillmentModes {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseFulfillmentMode converts raw input into a FulfillmentMode.
func ParseFulfillmentMode(value string) (FulfillmentMode, error) {
	for _, candidate := range validFulfillmentModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfillment mode %q", value)
}
