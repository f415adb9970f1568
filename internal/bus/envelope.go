package bus

import (
	"fmt"
	"unicode/utf8"

	errspkg "github.com/adverto/adverto/internal/bus/errors"
	jsoncodec "github.com/adverto/adverto/internal/bus/jsoncodec"
)

// Envelope is the wire frame shared by all services: the logical type name of
// the event plus its serialized body. The payload travels as UTF-8 text so
// the frame round-trips exactly through any byte-oriented broker.
type Envelope struct {
	TypeName string `json:"typeName"`
	Payload  string `json:"payload"`
}

// DecodeError marks an envelope that cannot be processed. It is fatal for the
// message that carried it; callers must surface it, never drop it silently.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("adverto: envelope decode failed: %s: %v", e.Reason, e.Err)
	}
	return "adverto: envelope decode failed: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeEnvelope frames the serialized event payload under its logical type
// name and returns broker-ready bytes.
func EncodeEnvelope(typeName string, payload []byte) ([]byte, error) {
	if typeName == "" {
		return nil, errspkg.ErrEventNameRequired
	}
	if !utf8.Valid(payload) {
		return nil, errspkg.ErrPayloadNotUTF8
	}

	return jsoncodec.Marshal(Envelope{
		TypeName: typeName,
		Payload:  string(payload),
	})
}

// DecodeEnvelope parses broker bytes back into the (typeName, payload) pair.
// DecodeEnvelope(EncodeEnvelope(t, p)) == (t, p) for all valid inputs.
func DecodeEnvelope(data []byte) (typeName string, payload []byte, err error) {
	var env Envelope
	if err := jsoncodec.Unmarshal(data, &env); err != nil {
		return "", nil, &DecodeError{Reason: "malformed envelope bytes", Err: err}
	}
	if env.TypeName == "" {
		return "", nil, &DecodeError{Reason: "envelope has no type name"}
	}
	return env.TypeName, []byte(env.Payload), nil
}
