// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// NewHTTPClient is the client every store adapter uses; catalogs are slow but small.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// UserAgent identifies the bot to store APIs.
const UserAgent = "free-games-bot/1.0 (+https://core.telegram.org/bots)"
