package reservationstatus

import (
	"strings"
)

type Status struct {
	Name string
}

func (s Status) Code() string {
	return s.Name
}

func (s Status) Label() string {
	parts := strings.Split(s.Name, "_")
	for i := range parts {
		if len(parts[i]) > 0 {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, " ")
}

// Active reports whether a reservation in this status holds its time window.
func (s Status) Active() bool {
	switch s.Name {
	case Statuses.Pending.Name, Statuses.Confirmed.Name, Statuses.InProgress.Name:
		return true
	}
	return false
}

type Enum struct {
	Pending    Status
	Confirmed  Status
	InProgress Status
	Completed  Status
	Cancelled  Status
	NoShow     Status
}

var Statuses = Enum{
	Pending:    Status{Name: "pending"},
	Confirmed:  Status{Name: "confirmed"},
	InProgress: Status{Name: "in_progress"},
	Completed:  Status{Name: "completed"},
	Cancelled:  Status{Name: "cancelled"},
	NoShow:     Status{Name: "no_show"},
}

var All = []Status{
	Statuses.Pending,
	Statuses.Confirmed,
	Statuses.InProgress,
	Statuses.Completed,
	Statuses.Cancelled,
	Statuses.NoShow,
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

// IsActive reports whether the named status blocks its window. Unknown names
// are not active.
func IsActive(name string) bool {
	s := ByName(name)
	return s != nil && s.Active()
}

func Names() []string {
	names := make([]string, 0, len(All))
	for _, s := range All {
		names = append(names, s.Name)
	}
	return names
}
