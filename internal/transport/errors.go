package transport

import "errors"

// Domain errors for the transport package.
var (
	// ErrMalformedFrame is returned for frames that are not valid JSON or
	// whose data does not match its declared layout.
	ErrMalformedFrame = errors.New("transport: malformed frame")

	// ErrUnexpectedCategory is returned when a frame of one category is
	// decoded as another.
	ErrUnexpectedCategory = errors.New("transport: unexpected frame category")

	// ErrPayloadRange is returned when a command component cannot be
	// represented as an unsigned 16-bit integer.
	ErrPayloadRange = errors.New("transport: payload component out of wire range")

	// ErrMalformedAnnouncement is returned for unreadable module announcements.
	ErrMalformedAnnouncement = errors.New("transport: malformed announcement")

	// ErrTopicMismatch is returned when a message arrives on a topic of the
	// wrong category, or names a different module than its frame.
	ErrTopicMismatch = errors.New("transport: topic does not match message")
)
