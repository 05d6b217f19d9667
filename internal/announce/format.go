// Package announce owns the announcement text protocol: the formatter that
// writes "alert set" and "alert triggered" messages and the parser that reads
// them back during reconciliation. The two are a matched pair; changing one
// side without the other breaks state recovery after a restart.
package announce

import (
	"fmt"
	"strconv"
	"strings"
)

// PriceText renders a target price exactly as it appears in announcements.
// Reconciliation later matches this literal decimal text, so every caller
// must go through it.
func PriceText(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}

// FormatSet renders a set announcement. Symbol and exchange are uppercased,
// the screener lowercased; the optional note rides at the end.
func FormatSet(symbol, priceText, screener, exchange, note string) string {
	text := fmt.Sprintf("Alert set for symbol %s at target price %s using screener: %s and exchange: %s.",
		strings.ToUpper(symbol), priceText, strings.ToLower(screener), strings.ToUpper(exchange))
	if note != "" {
		text += " Note: " + note
	}
	return text
}

// FormatTriggered renders a triggered announcement with the space-joined
// subscriber mentions appended.
func FormatTriggered(symbol, priceText string, mentions []string) string {
	text := fmt.Sprintf("%s %s at target price %s.", triggeredPrefix, strings.ToUpper(symbol), priceText)
	if len(mentions) > 0 {
		text += " " + strings.Join(mentions, " ")
	}
	return text
}
