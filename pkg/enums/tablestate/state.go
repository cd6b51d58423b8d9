package tablestate

import "strings"

type State struct {
	Name string
}

func (s State) Code() string {
	return s.Name
}

func (s State) Label() string {
	if len(s.Name) == 0 {
		return ""
	}
	return strings.ToUpper(s.Name[:1]) + s.Name[1:]
}

type Enum struct {
	Available   State
	Occupied    State
	Reserved    State
	Maintenance State
}

var States = Enum{
	Available:   State{Name: "available"},
	Occupied:    State{Name: "occupied"},
	Reserved:    State{Name: "reserved"},
	Maintenance: State{Name: "maintenance"},
}

var All = []State{
	States.Available,
	States.Occupied,
	States.Reserved,
	States.Maintenance,
}

// ByName returns the state for a given name, or nil if not found
func ByName(name string) *State {
	for _, s := range All {
		if s.Name == name {
			return &s
		}
	}
	return nil
}

// Names lists the codes of every table state in declaration order.
func Names() []string {
	names := make([]string, 0, len(All))
	for _, s := range All {
		names = append(names, s.Name)
	}
	return names
}
