package order

import "fmt"

// TrackingStatus is the fine-grained fulfilment stage of an order.
type TrackingStatus string

const (
	TrackingPending        TrackingStatus = "PENDING"
	TrackingConfirmed      TrackingStatus = "CONFIRMED"
	TrackingPicked         TrackingStatus = "PICKED"
	TrackingOutForDelivery TrackingStatus = "OUT_FOR_DELIVERY"
	TrackingDelivered      TrackingStatus = "DELIVERED"
	TrackingCancelled      TrackingStatus = "CANCELLED"
)

// validTransitions defines the state machine for tracking status transitions.
var validTransitions = map[TrackingStatus][]TrackingStatus{
	TrackingPending:        {TrackingConfirmed, TrackingCancelled},
	TrackingConfirmed:      {TrackingPicked, TrackingCancelled},
	TrackingPicked:         {TrackingOutForDelivery, TrackingCancelled},
	TrackingOutForDelivery: {TrackingDelivered, TrackingCancelled},
	TrackingDelivered:      {},
	TrackingCancelled:      {},
}

// advanceSuccessors is the fulfilment chain driven by AdvanceStatus.
// Confirmation is a separate operation and is not part of it.
var advanceSuccessors = map[TrackingStatus]TrackingStatus{
	TrackingConfirmed:      TrackingPicked,
	TrackingPicked:         TrackingOutForDelivery,
	TrackingOutForDelivery: TrackingDelivered,
}

// IsValid returns true if the status is a recognized tracking status.
func (s TrackingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s TrackingStatus) CanTransitionTo(target TrackingStatus) bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s TrackingStatus) IsTerminal() bool {
	allowed, exists := validTransitions[s]
	if !exists {
		return true
	}
	return len(allowed) == 0
}

// CanBeCancelled returns true if the order can be cancelled from this status.
func (s TrackingStatus) CanBeCancelled() bool {
	return s.CanTransitionTo(TrackingCancelled)
}

// Next returns the single legal fulfilment stage after s, if any.
func (s TrackingStatus) Next() (TrackingStatus, bool) {
	next, ok := advanceSuccessors[s]
	return next, ok
}

func (s TrackingStatus) String() string {
	return string(s)
}

// ParseTrackingStatus converts a string to a TrackingStatus, returning an error if invalid.
func ParseTrackingStatus(s string) (TrackingStatus, error) {
	status := TrackingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid tracking status: %s", s)
	}
	return status, nil
}

// Status is the coarse order status shown to customers.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)
