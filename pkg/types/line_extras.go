package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineExtra is the frozen copy of one chosen extra option on an order line.
type LineExtra struct {
	OptionID  uuid.UUID       `json:"option_id"`
	GroupID   uuid.UUID       `json:"group_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineExtras is stored as a JSON array column.
type LineExtras []LineExtra

func (l LineExtras) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	payload, err := json.Marshal([]LineExtra(l))
	if err != nil {
		return nil, fmt.Errorf("line extras: marshal: %w", err)
	}
	return string(payload), nil
}

func (l *LineExtras) Scan(value interface{}) error {
	if value == nil {
		*l = LineExtras{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("line extras: unsupported scan type %T", value)
	}
	if len(raw) == 0 {
		*l = LineExtras{}
		return nil
	}
	var decoded []LineExtra
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("line extras: unmarshal: %w", err)
	}
	*l = decoded
	return nil
}

func toBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
