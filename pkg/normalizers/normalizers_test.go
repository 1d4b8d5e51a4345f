package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "visa", Fold("  VISA "))
	assert.Equal(t, "", Fold("   "))
	assert.Equal(t, "0123", Fold("0123"))
}

func TestStripLeadingZeros(t *testing.T) {
	assert.Equal(t, "123", StripLeadingZeros("000123"))
	assert.Equal(t, "123", StripLeadingZeros(" 0123 "))
	assert.Equal(t, "", StripLeadingZeros("0000"))
	assert.Equal(t, "120", StripLeadingZeros("120"))
}
