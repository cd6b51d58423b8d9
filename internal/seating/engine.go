package seating

import (
	"errors"

	"github.com/appetiteclub/apt"
	"github.com/jonboulle/clockwork"
)

type EngineDeps struct {
	Repos    Repos
	Notifier Notifier
	Clock    clockwork.Clock
	Logger   apt.Logger
}

// Engine wires the table registry, the reservation ledger and the virtual
// queue around shared repositories, clock and notifier.
type Engine struct {
	Tables       *Registry
	Reservations *Ledger
	Queue        *Queue
}

func NewEngine(deps EngineDeps) (*Engine, error) {
	if deps.Repos.TableRepo == nil {
		return nil, errors.New("table repository is required")
	}
	if deps.Repos.ReservationRepo == nil {
		return nil, errors.New("reservation repository is required")
	}
	if deps.Repos.QueueRepo == nil {
		return nil, errors.New("queue repository is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var notifier Notifier = noopNotifier{}
	if deps.Notifier != nil {
		notifier = deps.Notifier
	}
	events := emitter{notifier: notifier, clock: clock}

	queue := newQueue(deps.Repos.QueueRepo, events, clock, logger.With("component", "queue"))
	ledger := newLedger(deps.Repos.ReservationRepo, deps.Repos.TableRepo, events, clock, logger.With("component", "ledger"))
	registry := newRegistry(deps.Repos.TableRepo, queue, ledger, events, clock, logger.With("component", "registry"))

	return &Engine{
		Tables:       registry,
		Reservations: ledger,
		Queue:        queue,
	}, nil
}
