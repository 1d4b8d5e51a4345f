package settlement

import (
	"strings"
	"time"

	"github.com/AngelMagaquian/laintapp-api/pkg/models"
)

// ParseNaranjaDate parses the date formats Naranja payroll files mix freely:
// DDMMYYYY digit runs (a 7-digit run lost its leading zero and is padded
// back), DD/MM/YYYY with an optional time suffix, and ISO forms.
func ParseNaranjaDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if isDigits(value) {
		if len(value) == 7 {
			value = "0" + value
		}
		if len(value) == 8 {
			t, err := time.Parse("02012006", value)
			if err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}

	return models.ParseDate(value)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
