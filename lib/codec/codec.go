package codec

import (
	"encoding/base64"
	"fmt"
)

// EncodeBytes encodes b for transport. A nil or empty slice encodes to "".
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBytes decodes a transport encoded byte string.
// Unpadded input is accepted as well, since some clients strip the padding.
func DecodeBytes(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if raw, rawErr := base64.RawStdEncoding.DecodeString(s); rawErr == nil {
		return raw, nil
	}
	return nil, fmt.Errorf("invalid base64 %q: %w", s, err)
}

// DecodeOptional decodes s but maps the empty string to nil, which the
// engines treat as "not given" (no prefix, no cursor).
func DecodeOptional(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return DecodeBytes(s)
}
