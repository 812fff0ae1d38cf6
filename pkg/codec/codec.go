// Package codec declares the opaque wire-framing boundary the dispatch
// core consumes. OpenFlow message parsing and packing is an external
// collaborator; this package only states the contract and provides a
// minimal line-delimited codec for tests and local experimentation.
package codec

// Message is an opaque decoded wire message. The core never inspects its
// contents; it only asks the Codec to classify it into an event name and,
// later, to encode a reply.
type Message any

// Codec turns bytes read off a socket into Messages and back. A real
// implementation speaks the OpenFlow wire format; the core is otherwise
// byte-agnostic.
type Codec interface {
	// Decode consumes a prefix of b and returns the decoded Message and how
	// many bytes were consumed. If b does not yet contain a full message,
	// Decode returns consumed == 0 and a nil error so the caller can read
	// more bytes and retry.
	Decode(b []byte) (msg Message, consumed int, err error)

	// Encode serializes a Message for transmission.
	Encode(msg Message) ([]byte, error)

	// EventNameFor classifies a decoded Message into the event name it
	// should be published under.
	EventNameFor(msg Message) string
}
