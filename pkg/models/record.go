package models

import (
	"strconv"
	"strings"
	"time"
)

// Record is an untyped transaction row from an uploaded settlement file.
// Internal ("xrp") rows and provider rows share this shape; the accessors
// below cover the fields the matching core consumes, everything else rides
// along untouched.
type Record map[string]any

// Str coerces the value under key to a string. Numbers are rendered without
// a trailing exponent or zeros so "100" and 100 compare equal downstream.
func (r Record) Str(key string) string {
	if r == nil {
		return ""
	}
	return anyToString(r[key])
}

// StrTrim returns the trimmed string value under key.
func (r Record) StrTrim(key string) string {
	return strings.TrimSpace(r.Str(key))
}

// First returns the first non-empty string value among keys.
func (r Record) First(keys ...string) string {
	for _, key := range keys {
		if v := r.StrTrim(key); v != "" {
			return v
		}
	}
	return ""
}

// Has reports whether key is present with a non-empty value.
func (r Record) Has(key string) bool {
	return r.StrTrim(key) != ""
}

// ProviderName returns the provider identifier, lowercased. Provider files
// are inconsistent about the column name, so both spellings are honored.
func (r Record) ProviderName() string {
	return strings.ToLower(r.First("proveedor", "provider"))
}

// TransactionType returns the row's transaction type, defaulting to
// "unknown" when the column is absent.
func (r Record) TransactionType() string {
	if v := r.StrTrim("transaction_type"); v != "" {
		return v
	}
	return "unknown"
}

// FileDate parses the row's file_date column. Returns the zero time when
// the column is missing or unparseable.
func (r Record) FileDate() time.Time {
	t, _ := ParseDate(r.StrTrim("file_date"))
	return t
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// ParseDate parses the date formats seen across provider files: RFC3339,
// plain dates, datetime without zone, and DD/MM/YYYY with an optional time
// suffix. Returns (zero, false) rather than an error; callers treat an
// unparseable date as absent.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	formats := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t.UTC(), true
		}
	}

	// DD/MM/YYYY with optional trailing time, e.g. "19/10/2025 14:30:00"
	datePart := value
	if i := strings.IndexByte(value, ' '); i > 0 {
		datePart = value[:i]
	}
	if t, err := time.Parse("02/01/2006", datePart); err == nil {
		return t.UTC(), true
	}

	return time.Time{}, false
}
