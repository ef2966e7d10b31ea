package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Event files are a plain concatenation of CBOR-encoded Events. Timestamps
// keep nanoseconds and map keys are sorted canonically, so equal events
// encode to equal bytes. Decoding tolerates duplicate keys and indefinite
// lengths, and bounds nesting and container sizes so a corrupt file cannot
// make the reader allocate without limit.
var eventCodec = mustEventModes()

type eventModes struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func mustEventModes() eventModes {
	enc, err := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: event encoder mode: %v", err))
	}

	dec, err := cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyQuiet,
		IndefLength:      cbor.IndefLengthAllowed,
		MaxNestedLevels:  16,
		MaxArrayElements: 1024,
		MaxMapPairs:      64,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: event decoder mode: %v", err))
	}
	return eventModes{enc: enc, dec: dec}
}

// EncodeEvent returns the CBOR encoding of event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventCodec.enc.Marshal(event)
}

// DecodeEvent decodes one CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := eventCodec.dec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns an Event encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return eventCodec.enc.NewEncoder(w)
}

// NewDecoder returns an Event decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return eventCodec.dec.NewDecoder(r)
}
