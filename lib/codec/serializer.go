package codec

import (
	"io"

	json "github.com/goccy/go-json"
)

// ISerializer is the interface for result serializers.
type ISerializer interface {
	// Serialize serializes v into a byte array
	Serialize(v any) ([]byte, error)
	// Deserialize deserializes b into the value pointed to by v
	Deserialize(b []byte, v any) error
	// Encode writes v followed by a newline to w
	Encode(w io.Writer, v any) error
}

// NewJSONSerializer creates a new serializer using json encoding.
// If pretty is set the output is indented with two spaces.
func NewJSONSerializer(pretty bool) ISerializer {
	return &jsonSerializerImpl{pretty: pretty}
}

// jsonSerializerImpl implements the ISerializer interface using json encoding
type jsonSerializerImpl struct {
	pretty bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.ISerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) Serialize(v any) ([]byte, error) {
	if j.pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func (j jsonSerializerImpl) Deserialize(b []byte, v any) error {
	return json.Unmarshal(b, v)
}

func (j jsonSerializerImpl) Encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if j.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
