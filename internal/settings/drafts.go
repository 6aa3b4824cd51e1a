package settings

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/internal/schedule"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/money"
	"github.com/angelmondragon/storefront-backend/pkg/validation"
)

// DayDraft is one edited weekday. Closed days may leave the times empty.
type DayDraft struct {
	DayOfWeek int    `json:"day_of_week" validate:"gte=0,lte=6"`
	Open      string `json:"open_time" validate:"omitempty,hhmm"`
	Close     string `json:"close_time" validate:"omitempty,hhmm"`
	Closed    bool   `json:"is_closed"`
}

// HoursDraft is the full week as edited in the back office.
type HoursDraft struct {
	Days []DayDraft `json:"days" validate:"len=7,dive"`
}

// DiffHours validates draft and returns only the weekdays that differ from
// current, ordered by weekday.
func DiffHours(current []schedule.Hours, draft HoursDraft) ([]schedule.Hours, error) {
	if err := validation.Struct(draft); err != nil {
		return nil, err
	}

	desired := make(map[time.Weekday]schedule.Hours, len(draft.Days))
	details := map[string]string{}
	for i, day := range draft.Days {
		weekday := time.Weekday(day.DayOfWeek)
		if _, dup := desired[weekday]; dup {
			details[fmt.Sprintf("days[%d].day_of_week", i)] = "is duplicated"
			continue
		}
		if !day.Closed && (day.Open == "" || day.Close == "") {
			details[fmt.Sprintf("days[%d]", i)] = "open days need open_time and close_time"
			continue
		}
		h := schedule.Hours{DayOfWeek: weekday, Closed: day.Closed}
		if day.Open != "" {
			open := schedule.MustTimeOfDay(day.Open)
			h.Open = &open
		}
		if day.Close != "" {
			closeAt := schedule.MustTimeOfDay(day.Close)
			h.Close = &closeAt
		}
		desired[weekday] = h
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid opening hours").WithDetails(details)
	}

	existing := make(map[time.Weekday]schedule.Hours, len(current))
	for _, h := range current {
		existing[h.DayOfWeek] = h
	}
	var changed []schedule.Hours
	for day := time.Sunday; day <= time.Saturday; day++ {
		want := desired[day]
		if have, ok := existing[day]; ok && sameHours(have, want) {
			continue
		}
		changed = append(changed, want)
	}
	return changed, nil
}

func sameHours(a, b schedule.Hours) bool {
	return a.Closed == b.Closed && sameTime(a.Open, b.Open) && sameTime(a.Close, b.Close)
}

func sameTime(a, b *schedule.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FeeDraft is one delivery fee row. A nil ID creates a new fee.
type FeeDraft struct {
	ID           *uuid.UUID   `json:"id"`
	Neighborhood string       `json:"neighborhood" validate:"required,max=120"`
	Fee          money.Amount `json:"fee" validate:"gte=0"`
	IsActive     bool         `json:"is_active"`
}

// FeesDraft is the complete fee table; stored fees missing from it are deleted.
type FeesDraft struct {
	Fees []FeeDraft `json:"fees" validate:"dive"`
}

// FeeChanges is the explicit change set produced by DiffFees.
type FeeChanges struct {
	Create []catalog.DeliveryFee `json:"create"`
	Update []catalog.DeliveryFee `json:"update"`
	Delete []uuid.UUID           `json:"delete"`
}

// Empty reports whether applying the changes would be a no-op.
func (c FeeChanges) Empty() bool {
	return len(c.Create) == 0 && len(c.Update) == 0 && len(c.Delete) == 0
}

// DiffFees validates draft against current and returns the rows to create,
// update and delete. Active neighborhoods must be unique ignoring case and accents.
func DiffFees(current []catalog.DeliveryFee, draft FeesDraft) (FeeChanges, error) {
	for i := range draft.Fees {
		draft.Fees[i].Neighborhood = strings.TrimSpace(draft.Fees[i].Neighborhood)
	}
	if err := validation.Struct(draft); err != nil {
		return FeeChanges{}, err
	}

	existing := make(map[uuid.UUID]catalog.DeliveryFee, len(current))
	for _, fee := range current {
		existing[fee.ID] = fee
	}

	var changes FeeChanges
	seen := make(map[uuid.UUID]bool, len(draft.Fees))
	active := map[string]int{}
	details := map[string]string{}
	for i, row := range draft.Fees {
		if row.IsActive {
			key := catalog.NormalizeNeighborhood(row.Neighborhood)
			if first, dup := active[key]; dup {
				details[fmt.Sprintf("fees[%d].neighborhood", i)] = fmt.Sprintf("duplicates fees[%d]", first)
			} else {
				active[key] = i
			}
		}

		fee := catalog.DeliveryFee{Neighborhood: row.Neighborhood, Fee: row.Fee.Decimal, IsActive: row.IsActive}
		if row.ID == nil {
			fee.ID = uuid.New()
			changes.Create = append(changes.Create, fee)
			continue
		}
		stored, ok := existing[*row.ID]
		if !ok || seen[*row.ID] {
			details[fmt.Sprintf("fees[%d].id", i)] = "is unknown or repeated"
			continue
		}
		seen[*row.ID] = true
		fee.ID = stored.ID
		if stored.Neighborhood != fee.Neighborhood || !stored.Fee.Equal(fee.Fee) || stored.IsActive != fee.IsActive {
			changes.Update = append(changes.Update, fee)
		}
	}
	if len(details) > 0 {
		return FeeChanges{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery fees").WithDetails(details)
	}

	for _, fee := range current {
		if !seen[fee.ID] {
			changes.Delete = append(changes.Delete, fee.ID)
		}
	}
	sort.Slice(changes.Delete, func(i, j int) bool { return changes.Delete[i].String() < changes.Delete[j].String() })
	return changes, nil
}
