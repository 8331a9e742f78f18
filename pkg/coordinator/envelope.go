package coordinator

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/ugorji/go/codec"

	"github.com/matzehuels/plushie/pkg/errors"
	"github.com/matzehuels/plushie/pkg/plushie"
)

// Envelope keys.
const (
	KeyInit   = "ini"
	KeyUpdate = "upd"
	KeyStatus = "status"
	KeyParams = "params"
	KeyExport = "export"
)

// Envelope is one message to the observer.
type Envelope struct {
	Key string `json:"key" codec:"key"`
	Dat any    `json:"dat" codec:"dat"`
}

// Status wraps a human readable status line.
func Status(format string, args ...any) Envelope {
	return Envelope{Key: KeyStatus, Dat: fmt.Sprintf(format, args...)}
}

// Encoding selects the frame format of a transport.
type Encoding string

const (
	JSON    Encoding = "json"
	Msgpack Encoding = "msgpack"
)

// ParseEncoding accepts "json", "msgpack" or the empty string (JSON).
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(s) {
	case "", JSON:
		return JSON, nil
	case Msgpack:
		return Msgpack, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown encoding %q (want json or msgpack)", s)
}

var (
	msgpackHandle = &codec.MsgpackHandle{}
	mapStringAny  = reflect.TypeOf(map[string]any(nil))
)

// Encode serializes e. Msgpack frames carry the same document as JSON frames.
func (e Envelope) Encode(enc Encoding) ([]byte, error) {
	if enc != Msgpack {
		return json.Marshal(e)
	}

	v := any(e)
	if _, ok := e.Dat.(plushie.UpdateData); !ok {
		// Peculiarities and leniency names only have a JSON shape; go through
		// a generic tree so both encodings agree.
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		var tree any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, err
		}
		v = tree
	}

	var out []byte
	if err := codec.NewEncoderBytes(&out, msgpackHandle).Encode(v); err != nil {
		return nil, fmt.Errorf("encode msgpack: %w", err)
	}
	return out, nil
}

// DecodeEnvelope reads a frame written by Encode into a generic document.
// Used by clients and tests; the coordinator never decodes envelopes.
func DecodeEnvelope(data []byte, enc Encoding) (map[string]any, error) {
	var doc map[string]any
	if enc != Msgpack {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	var h codec.MsgpackHandle
	h.RawToString = true
	h.MapType = mapStringAny
	if err := codec.NewDecoderBytes(data, &h).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode msgpack: %w", err)
	}
	return doc, nil
}
