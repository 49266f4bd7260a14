package rdapbootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// get performs a single GET of a bootstrap document, conditional on since
// when it is non-zero. A 200 body that is not JSON is reported as an error
// so a broken upstream response never replaces a good copy.
func (m *Mirror) get(ctx context.Context, url string, since time.Time) (int, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", m.ua)
	copyHeaders(req.Header, m.headerExtra)

	// conditional
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	resp, err := m.hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotModified:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, nil, nil
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBootstrapDocument))
		if err != nil {
			return resp.StatusCode, nil, err
		}
		if !json.Valid(body) {
			return resp.StatusCode, nil, fmt.Errorf("bootstrap document from %s is not valid JSON", url)
		}
		return resp.StatusCode, body, nil
	default:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return resp.StatusCode, nil, fmt.Errorf("bootstrap fetch failed: %s", resp.Status)
	}
}
