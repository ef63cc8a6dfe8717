package authflow

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// GenerateCustomerNumber returns a display identifier in the form
// CUST-YYYYMMDD-NNNNN with a zero-padded 5-digit random suffix. The number is
// cosmetic and carries no uniqueness guarantee.
func GenerateCustomerNumber(now time.Time) (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate customer number: %w", err)
	}
	suffix := binary.BigEndian.Uint32(b[:]) % 100000
	return fmt.Sprintf("CUST-%s-%05d", now.Format("20060102"), suffix), nil
}

// GenerateWatermarkID returns a display identifier in the form WM-XXXXXXXX
// with 8 uppercase hex characters from 4 random bytes.
func GenerateWatermarkID() (string, error) {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate watermark id: %w", err)
	}
	return "WM-" + strings.ToUpper(hex.EncodeToString(b[:])), nil
}
