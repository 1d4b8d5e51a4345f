package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNaranjaDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
		ok    bool
	}{
		{"eight digit run", "26092025", "2025-09-26", true},
		{"seven digit run regains its leading zero", "5102025", "2025-10-05", true},
		{"slash date", "19/10/2025", "2025-10-19", true},
		{"slash date with time", "19/10/2025 00:00:00", "2025-10-19", true},
		{"iso date", "2025-10-19", "2025-10-19", true},
		{"padded digits", "  26092025  ", "2025-09-26", true},
		{"empty", "", "", false},
		{"too few digits", "092025", "", false},
		{"too many digits", "260920251", "", false},
		{"impossible day", "45092025", "", false},
		{"garbage", "mañana", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseNaranjaDate(tt.value)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}
