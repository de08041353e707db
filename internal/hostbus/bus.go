package hostbus

import (
	"errors"
	"time"

	"github.com/camlink/camlink-go/internal/core/domain"
)

// Bus delivers named events to the host. Implementations must be safe for
// concurrent use.
type Bus interface {
	Emit(event string, payload any) error
}

// BusFunc adapts a function to the Bus interface.
type BusFunc func(event string, payload any) error

// Emit calls f(event, payload).
func (f BusFunc) Emit(event string, payload any) error {
	return f(event, payload)
}

// Event is a delivered bus event.
type Event struct {
	Name    string
	Payload any
	At      time.Time
}

// Discard accepts and drops every event.
var Discard Bus = BusFunc(func(string, any) error { return nil })

type multiBus []Bus

// Multi returns a Bus that emits to every bus in order. All buses receive
// the event even if an earlier one fails; failures are joined.
func Multi(buses ...Bus) Bus {
	flat := make(multiBus, 0, len(buses))
	for _, b := range buses {
		if b == nil {
			continue
		}
		if m, ok := b.(multiBus); ok {
			flat = append(flat, m...)
			continue
		}
		flat = append(flat, b)
	}
	return flat
}

func (m multiBus) Emit(event string, payload any) error {
	var errs []error
	for _, b := range m {
		if err := b.Emit(event, payload); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return domain.ErrEmitFailed.WithDetails(event).WithCause(errors.Join(errs...))
}
