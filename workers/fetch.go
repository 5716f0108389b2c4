// workers/fetch.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"free-games-bot/utils"
)

// getJSON issues a GET against a store API and decodes the JSON body into out.
func getJSON(ctx context.Context, client *http.Client, tag, finalURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", utils.UserAgent)

	log.Printf("[%s] ➡️  GET %s", tag, finalURL)
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to %s failed: %w", finalURL, err)
	}
	defer func() {
		// Always drain & close to prevent connection leaks
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s returned %d: %s", finalURL, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", finalURL, err)
	}
	return nil
}
