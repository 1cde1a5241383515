package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// statusError maps item scoped statuses to ErrDuplicate and ErrNoMatch.
func statusError(resp *http.Response) error {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch resp.StatusCode {
	case http.StatusConflict:
		return ErrDuplicate
	case http.StatusNotFound:
		return ErrNoMatch
	default:
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(text))
	}
}
