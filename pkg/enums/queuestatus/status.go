package queuestatus

import "strings"

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "-")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Terminal reports whether the entry has left the queue. Terminal entries are
// reported in events but never stored.
func (s Status) Terminal() bool {
	return s.Name == Statuses.Confirmed.Name || s.Name == Statuses.Cancelled.Name
}

type Enum struct {
	Waiting   Status
	Called    Status
	Confirmed Status
	Cancelled Status
}

var Statuses = Enum{
	Waiting:   Status{Name: "waiting"},
	Called:    Status{Name: "called"},
	Confirmed: Status{Name: "confirmed-removed"},
	Cancelled: Status{Name: "cancelled-removed"},
}

var All = []Status{
	Statuses.Waiting,
	Statuses.Called,
	Statuses.Confirmed,
	Statuses.Cancelled,
}

// ByName returns the status for a given name, or nil if not found
func ByName(name string) *Status {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}
