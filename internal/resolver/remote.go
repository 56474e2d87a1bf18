package resolver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/soyeahso/matchat/internal/domain"
	"github.com/soyeahso/matchat/internal/format"
	"github.com/soyeahso/matchat/internal/logging"
)

const (
	// timestampLayout renders UTC timestamps with millisecond precision.
	timestampLayout = "2006-01-02T15:04:05.000Z"
	maxReplyBytes   = 1 << 20
)

var errNullReply = errors.New("response body is null")

// Remote posts user messages to a configured endpoint.
type Remote struct {
	URL       string
	Method    string
	Headers   map[string]string
	SessionID string

	client *http.Client
	now    func() time.Time
	log    *logging.Logger
}

// Call sends message and maps the outcome to a reply. It never returns an
// error; every failure becomes the failure reply.
func (rc *Remote) Call(ctx context.Context, message string) Reply {
	r, err := rc.do(ctx, message)
	if err != nil {
		rc.log.Warn().Err(err).Str("url", rc.URL).Msg("remote request failed")
		return failure(SourceRemote)
	}
	return r
}

func (rc *Remote) do(ctx context.Context, message string) (Reply, error) {
	payload := domain.WebhookRequest{
		Message:   message,
		SessionID: rc.SessionID,
		Timestamp: rc.now().UTC().Format(timestampLayout),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Reply{}, fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, rc.Method, rc.URL, bytes.NewReader(body))
	if err != nil {
		return Reply{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range rc.Headers {
		req.Header.Set(k, v)
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Reply{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return Reply{}, fmt.Errorf("reading response: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Reply{}, fmt.Errorf("decoding response: %w", err)
	}
	if decoded == nil {
		return Reply{}, errNullReply
	}
	// Arrays and scalars carry no reply fields and get the acknowledgement.
	data, _ := decoded.(map[string]any)

	rc.log.Debug().Int("status", resp.StatusCode).Int("bytes", len(raw)).Msg("remote reply received")
	return extractReply(data), nil
}

// extractReply reads the first truthy of response, message, reply, falling
// back to AckMessage. A truthy formattedResponse overrides it: a string is
// used verbatim, any other value renders as an empty entry.
func extractReply(data map[string]any) Reply {
	if fr := data["formattedResponse"]; truthy(fr) {
		s, ok := fr.(string)
		if !ok {
			s = format.Value(fr)
		}
		return Reply{Text: s, Markup: true, Source: SourceRemote}
	}

	var text any = AckMessage
	for _, key := range []string{"response", "message", "reply"} {
		if v := data[key]; truthy(v) {
			text = v
			break
		}
	}
	return Reply{Text: format.Value(text), Markup: true, Source: SourceRemote}
}

// truthy follows loose JSON truthiness: null, false, 0, NaN and "" are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}
