package schedule

import (
	"encoding/json"
	"testing"
	"time"
)

func ptr(raw string) *TimeOfDay {
	t := MustTimeOfDay(raw)
	return &t
}

// 2026-10-14 is a Wednesday.
func at(hhmm string) time.Time {
	t := MustTimeOfDay(hhmm)
	return time.Date(2026, 10, 14, int(t)/60, int(t)%60, 0, 0, time.UTC)
}

func weekWith(today Hours) []Hours {
	week := make([]Hours, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if d == today.DayOfWeek {
			week = append(week, today)
			continue
		}
		week = append(week, Hours{DayOfWeek: d, Closed: true})
	}
	return week
}

func TestIsOpenDaytimeWindow(t *testing.T) {
	t.Parallel()

	week := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("10:00"), Close: ptr("22:00")})

	cases := map[string]bool{
		"09:59": false,
		"10:00": true,
		"15:00": true,
		"21:59": true,
		"22:00": false,
		"23:00": false,
	}
	for hhmm, want := range cases {
		if got := IsOpen(week, at(hhmm)); got != want {
			t.Fatalf("IsOpen at %s = %v, want %v", hhmm, got, want)
		}
	}
}

func TestIsOpenOvernightWindow(t *testing.T) {
	t.Parallel()

	week := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("22:00"), Close: ptr("02:00")})

	cases := map[string]bool{
		"23:30": true,
		"01:00": true,
		"02:00": false,
		"12:00": false,
		"22:00": true,
	}
	for hhmm, want := range cases {
		if got := IsOpen(week, at(hhmm)); got != want {
			t.Fatalf("IsOpen at %s = %v, want %v", hhmm, got, want)
		}
	}
}

func TestClosedDayAndUnsetTimes(t *testing.T) {
	t.Parallel()

	closed := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("10:00"), Close: ptr("22:00"), Closed: true})
	if IsOpen(closed, at("15:00")) {
		t.Fatal("closed day must report closed")
	}
	if _, ok := TodayWindow(closed, at("15:00")); ok {
		t.Fatal("closed day has no window")
	}

	unset := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("10:00")})
	if IsOpen(unset, at("15:00")) {
		t.Fatal("missing close time must report closed")
	}
	if _, ok := TodayWindow(unset, at("15:00")); ok {
		t.Fatal("missing close time has no window")
	}

	if IsOpen(nil, at("15:00")) {
		t.Fatal("empty schedule must report closed")
	}
}

func TestTodayWindow(t *testing.T) {
	t.Parallel()

	week := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("18:30"), Close: ptr("23:45")})
	window, ok := TodayWindow(week, at("08:00"))
	if !ok {
		t.Fatal("expected window")
	}
	if window.Open.String() != "18:30" || window.Close.String() != "23:45" {
		t.Fatalf("unexpected window %s-%s", window.Open, window.Close)
	}

	status := Evaluate(week, at("08:00"))
	if status.Open || status.Today == nil {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestIsOpenUsesLocationOfNow(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("BRT", -3*60*60)
	week := weekWith(Hours{DayOfWeek: time.Wednesday, Open: ptr("10:00"), Close: ptr("22:00")})

	// 14:00 UTC is 11:00 in BRT, same weekday.
	now := time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC).In(loc)
	if !IsOpen(week, now) {
		t.Fatal("expected open at 11:00 local")
	}
	clock := FixedClock(now)
	if !IsOpen(week, clock.Now()) {
		t.Fatal("fixed clock should yield the same result")
	}
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	valid := map[string]string{
		"00:00":    "00:00",
		"09:05":    "09:05",
		"23:59:59": "23:59",
		" 22:30 ":  "22:30",
	}
	for input, want := range valid {
		got, err := ParseTimeOfDay(input)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) unexpected error: %v", input, err)
		}
		if got.String() != want {
			t.Fatalf("ParseTimeOfDay(%q) = %s, want %s", input, got, want)
		}
	}
	for _, input := range []string{
		"", "24:00", "12:60", "12", "ab:cd", "12:5", "9:00", "+9:00", "10:00:zz", "10:00:60", "10:00:5", "10:00:00:00", "-1:00",
	} {
		if _, err := ParseTimeOfDay(input); err == nil {
			t.Fatalf("ParseTimeOfDay(%q) expected error", input)
		}
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	t.Parallel()

	payload, err := json.Marshal(Window{Open: MustTimeOfDay("10:00"), Close: MustTimeOfDay("02:00")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(payload) != `{"open":"10:00","close":"02:00"}` {
		t.Fatalf("unexpected json %s", payload)
	}
	var decoded Window
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !decoded.Overnight() {
		t.Fatal("expected overnight window")
	}
}
