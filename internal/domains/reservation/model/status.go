package model

import (
	"fmt"

	"bistro/shared/failure"
)

// Status is the lifecycle state of a reservation. Transitions are restricted:
// a booked reservation may be seated, cancelled, or re-saved as booked; a
// seated reservation may only finish; finished and cancelled are terminal.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusSeated    Status = "seated"
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusBooked:    {StatusBooked, StatusSeated, StatusCancelled},
	StatusSeated:    {StatusFinished},
	StatusFinished:  {},
	StatusCancelled: {},
}

func ParseStatus(value string) (Status, error) {
	status := Status(value)

	if _, ok := transitions[status]; !ok {
		return "", failure.BadRequestFromString(fmt.Sprintf("unknown status: %s", value)) //nolint:wrapcheck
	}

	return status, nil
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// Transition validates a status change against the lifecycle rules and
// returns a conflict error describing the rejection.
func (s Status) Transition(next Status) error {
	if _, ok := transitions[next]; !ok {
		return failure.BadRequestFromString(fmt.Sprintf("unknown status: %s", next)) //nolint:wrapcheck
	}

	if s.IsTerminal() {
		return failure.Conflict(fmt.Sprintf("a %s reservation cannot be updated", s)) //nolint:wrapcheck
	}

	for _, allowed := range transitions[s] {
		if next == allowed {
			return nil
		}
	}

	return failure.Conflict(fmt.Sprintf("a %s reservation cannot be changed to %s", s, next)) //nolint:wrapcheck
}

func (s Status) String() string {
	return string(s)
}
