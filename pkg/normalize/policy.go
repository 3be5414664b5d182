package normalize

import "strings"

// Policy names a row-validation rule applied after projection. Two distinct
// rules exist in the field and both remain supported; they are deliberately
// not unified.
type Policy uint8

const (
	// PolicyPrices drops rows missing any of open, high, low, close or the
	// timestamp. The conservative default.
	PolicyPrices Policy = iota

	// PolicyTimestampClose drops only rows missing the timestamp or close.
	PolicyTimestampClose
)

func (p Policy) String() string {
	names := []string{"prices", "timestamp_close"}
	if int(p) < len(names) {
		return names[p]
	}
	return "unknown"
}

// ParsePolicy parses a policy name. Unknown names map to the default.
func ParsePolicy(s string) Policy {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "timestamp_close", "timestampclose":
		return PolicyTimestampClose
	case "prices", "":
		return PolicyPrices
	}
	return PolicyPrices
}
