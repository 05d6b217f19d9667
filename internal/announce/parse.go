package announce

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

const triggeredPrefix = "Alert triggered for symbol"

// The price class carries no sign, so an announcement for a negative target
// would not survive reconciliation. Command parsing rejects non-positive
// targets before anything is announced.
var setPattern = regexp.MustCompile(
	`Alert set for symbol\s+(\S+)\s+at target price\s+([\d.]+)\s+using screener:\s+(\w+)\s+and exchange:\s+(\w+)\.?(?:\s+Note:\s+(.*))?$`)

// SetAnnouncement is a parsed "alert set" message. PriceText keeps the
// literal decimal text alongside the parsed value for resolved-checks.
type SetAnnouncement struct {
	Symbol    string
	Target    float64
	PriceText string
	Screener  string
	Exchange  string
	Note      string
}

// ParseSet extracts an alert from a set announcement. ok is false when the
// text does not match the grammar or carries an unusable price.
func ParseSet(text string) (SetAnnouncement, bool) {
	m := setPattern.FindStringSubmatch(text)
	if m == nil {
		return SetAnnouncement{}, false
	}

	priceText := strings.TrimSuffix(m[2], ".")
	target, err := strconv.ParseFloat(priceText, 64)
	if err != nil || math.IsNaN(target) || math.IsInf(target, 0) {
		return SetAnnouncement{}, false
	}

	return SetAnnouncement{
		Symbol:    strings.ToUpper(strings.TrimSpace(m[1])),
		Target:    target,
		PriceText: priceText,
		Screener:  strings.ToLower(m[3]),
		Exchange:  strings.ToUpper(m[4]),
		Note:      strings.TrimSpace(m[5]),
	}, true
}

// MatchesTriggered reports whether text is a triggered announcement resolving
// an alert for symbol at the given literal price text.
func MatchesTriggered(text, symbol, priceText string) bool {
	return strings.HasPrefix(text, triggeredPrefix) &&
		strings.Contains(text, symbol) &&
		strings.Contains(text, priceText)
}
