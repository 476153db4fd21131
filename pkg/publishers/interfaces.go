package publishers

import "context"

// Publisher delivers article events to one downstream sink. Implementations
// holding connections also implement io.Closer; Fanout.Close calls it.
type Publisher interface {
	// ID is the publisher entry id from the publishers file.
	ID() string
	// Type is one of the Type* constants or a custom registered type.
	Type() string
	Publish(ctx context.Context, evt Event) error
}
