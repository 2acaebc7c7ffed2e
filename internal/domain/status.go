package domain

import "database/sql/driver"

// Status values are persisted as strings and guarded by CHECK constraints.
// Services decide transitions through the methods below, never by comparing
// raw strings.

// ItemStatus is the availability state of a listing.
type ItemStatus string

const (
	ItemAvailable ItemStatus = "available"
	ItemSold      ItemStatus = "sold"
)

// Valid reports whether s is a known item status.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemAvailable, ItemSold:
		return true
	}
	return false
}

// Value implements driver.Valuer so the enum binds as a plain string.
func (s ItemStatus) Value() (driver.Value, error) { return string(s), nil }

// CanTransitionTo reports whether an item may move from s to next.
// The only legal move is available -> sold.
func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	return s == ItemAvailable && next == ItemSold
}

// RequestStatus is the lifecycle state of a purchase request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestPaid     RequestStatus = "paid"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:  {RequestPaid, RequestDeclined, RequestAccepted},
	RequestPaid:     {RequestAccepted},
	RequestAccepted: nil,
	RequestDeclined: nil,
}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	_, ok := requestTransitions[s]
	return ok
}

// Value implements driver.Valuer.
func (s RequestStatus) Value() (driver.Value, error) { return string(s), nil }

// Terminal reports whether no further transition is possible from s.
func (s RequestStatus) Terminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// CanTransitionTo reports whether an actor-driven move from s to next is legal.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanForceDecline reports whether the system may decline a request in state s
// because its item sold through another request.
func (s RequestStatus) CanForceDecline() bool {
	return s == RequestPending || s == RequestPaid
}

// Sources returns every status from which s is reachable. Repositories use it
// to build compare-and-swap predicates.
func (s RequestStatus) Sources() []RequestStatus {
	var out []RequestStatus
	for _, from := range []RequestStatus{RequestPending, RequestPaid, RequestAccepted, RequestDeclined} {
		if from.CanTransitionTo(s) {
			out = append(out, from)
		}
	}
	return out
}

// OrderStatus is the settlement state recorded on an order.
type OrderStatus string

const (
	OrderCompleted OrderStatus = "completed"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool { return s == OrderCompleted }

// Value implements driver.Valuer.
func (s OrderStatus) Value() (driver.Value, error) { return string(s), nil }
