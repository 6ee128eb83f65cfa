// Package chans holds the channel shedding policy shared by the broadcast
// paths: fresh updates beat stale ones, and a slow consumer never blocks
// the producer.
package chans

// OfferLatest delivers v without blocking. When ch is full, the oldest
// buffered element is dropped to make room; if a concurrent consumer races
// the drop, v itself is discarded rather than waiting.
func OfferLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
