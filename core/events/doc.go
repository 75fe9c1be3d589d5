// Package events defines the auction related events emitted on the event bus.
//
// Available event types:
//   - ResolutionEvent: one resolved batch of bids
//   - BidRejectedEvent: a bid that lost or was refused
//   - AwardEvent: delivery result of an award notification
package events

// Event is implemented by every event published by the auction service.
type Event interface {
	EventName() string
}
