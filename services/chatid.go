package services

import (
	"fmt"
	"strconv"
	"strings"
)

// NormalizeChatID turns any inbound chat identifier into its canonical form:
// the decimal string of a signed 64-bit Telegram chat ID ("+042" -> "42").
func NormalizeChatID(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty chat id", ErrMalformedInput)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: chat id %q is not an integer", ErrMalformedInput, raw)
	}
	return strconv.FormatInt(id, 10), nil
}

// ChatIDFromInt is the canonical form of a numeric chat ID as Telegram delivers it.
func ChatIDFromInt(id int64) string {
	return strconv.FormatInt(id, 10)
}
