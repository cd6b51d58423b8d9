package seating

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// dateLayout is the reservation date format. Dates derived from the
	// clock are taken in UTC, the same zone records are stamped in.
	dateLayout = "2006-01-02"

	// EndOfDay is the latest end a window may have; windows never cross midnight.
	EndOfDay ClockTime = 24 * 60
)

// ClockTime is a wall-clock time of day in minutes since midnight. It is
// written as "HH:MM" in JSON and stored as an integer.
type ClockTime int

func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(hour*60 + minute)
}

// ParseClockTime accepts "HH:MM" or "HH:MM:SS" (seconds must be zero).
// "24:00" is accepted and denotes the end of the day.
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("invalid time %q: seconds are not supported", s)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	if minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("time %q out of range", s)
	}
	return NewClockTime(hour, minute), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c ClockTime) Add(d time.Duration) ClockTime {
	return c + ClockTime(d/time.Minute)
}

func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Overlaps reports whether [start1,end1) and [start2,end2) intersect.
func Overlaps(start1, end1, start2, end2 ClockTime) bool {
	return start1 < end2 && start2 < end1
}

func serviceDate(now time.Time) string {
	return now.UTC().Format(dateLayout)
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
