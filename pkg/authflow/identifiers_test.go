package authflow

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCustomerNumber(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	number, err := GenerateCustomerNumber(now)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CUST-20260831-\d{5}$`), number)
}

func TestGenerateWatermarkID(t *testing.T) {
	id, err := GenerateWatermarkID()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^WM-[0-9A-F]{8}$`), id)
}
