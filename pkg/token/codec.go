package token

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Codec issues opaque single-use tokens for email verification and password
// reset links. Tokens are never parsed back: they gain identity purely by
// being stored on a customer record and matched on lookup.
type Codec struct{}

// NewCodec creates a new opaque token codec
func NewCodec() *Codec {
	return &Codec{}
}

// Issue builds a token from the given context parts, the current timestamp in
// milliseconds, and 32 cryptographically random bytes, joined by ":" and
// encoded with unpadded base64url. The result is safe to embed in a link
// query parameter without escaping.
func (c *Codec) Issue(parts ...string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	fields := make([]string, 0, len(parts)+2)
	fields = append(fields, parts...)
	fields = append(fields,
		strconv.FormatInt(time.Now().UnixMilli(), 10),
		hex.EncodeToString(raw),
	)

	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, ":"))), nil
}
