package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// userAgent is sent with every request; some providers reject the Go default
const userAgent = "Mozilla/5.0 (compatible; stock-portfolio/1.0)"

// jget performs an HTTP GET and unmarshals the JSON body into data.
// A 404 is reported as ErrUnknownTicker, any other non-200 as ErrProvider.
func jget(ctx context.Context, client *http.Client, addr string, data any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUnknownTicker
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: GET %v%v: %v", ErrProvider, resp.Request.URL.Host, resp.Request.URL.Path, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrProvider, err)
	}
	if err := json.Unmarshal(body, data); err != nil {
		return fmt.Errorf("%w: decode body: %w", ErrProvider, err)
	}
	return nil
}
