package store

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mkrencik/droppit/internal/logger"
)

// Stream subscribes to change notifications for the node at path and invokes
// onChange for every put/patch frame, starting with an initial full put of
// the node. It blocks until the stream breaks or ctx is cancelled, returning
// the terminating error. Callers own the retry policy.
func (c *Client) Stream(ctx context.Context, path string, onChange func(Change)) error {
	url := c.baseURL + "/v1/store/stream?path=" + strings.TrimLeft(path, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf(ErrFmtRequestFailed, "STREAM", path, err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream is long-lived: use a client without a global timeout.
	httpc := &http.Client{Timeout: 0}
	resp, err := httpc.Do(req)
	if err != nil {
		return fmt.Errorf(ErrFmtRequestFailed, "STREAM", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf(ErrFmtStatusCode, "STREAM", path, resp.StatusCode)
	}

	log := logger.FromContext(ctx)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventType string
	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			eventType = strings.TrimPrefix(line, "event: ")

		case strings.HasPrefix(line, "data: "):
			if eventType != string(ChangePut) && eventType != string(ChangePatch) {
				continue // keepalive or connection metadata
			}
			var change Change
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &change); err != nil {
				log.Debug(LogMsgStreamSkipped, "error", err)
				continue
			}
			onChange(change)

		case line == "":
			eventType = ""
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf(ErrFmtRequestFailed, "STREAM", path, err)
	}
	// Server closed the stream cleanly; still a retryable condition.
	log.Debug(LogMsgStreamEnded, "path", path)
	return nil
}
