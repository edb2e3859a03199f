package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Receipt describes a send that did not fail. Confirmed is false when the
// transport could only tell that the request went out.
type Receipt struct {
	Confirmed  bool
	StatusCode int
}

// Transport delivers a message to the site owner.
type Transport interface {
	Send(ctx context.Context, msg ContactMessage) (Receipt, error)
}

// maxResponseBody caps how much of the endpoint's reply is read.
const maxResponseBody = 64 << 10

// HTTPTransport posts messages as JSON to the contact endpoint and reads
// the status and body of the reply.
type HTTPTransport struct {
	Endpoint string
	Client   *http.Client
}

// NewHTTPTransport posts to endpoint with http.DefaultClient. The
// submission deadline comes from the context, not the client.
func NewHTTPTransport(endpoint string) *HTTPTransport {
	return &HTTPTransport{Endpoint: endpoint, Client: http.DefaultClient}
}

var _ Transport = (*HTTPTransport)(nil)

// endpointReply covers both reply shapes the endpoint is known to use.
type endpointReply struct {
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Result string `json:"result"`
	Error  any    `json:"error"`
}

func (t *HTTPTransport) Send(ctx context.Context, msg ContactMessage) (Receipt, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return Receipt{}, fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Receipt{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: read reply: %w", ErrNetwork, err)
	}

	var reply endpointReply
	// replies are not required to be JSON
	_ = json.Unmarshal(raw, &reply)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Receipt{}, &UpstreamError{StatusCode: resp.StatusCode, Messages: reply.messages()}
	}
	if reply.Result == "error" {
		return Receipt{}, &UpstreamError{StatusCode: resp.StatusCode, Messages: reply.messages()}
	}
	return Receipt{Confirmed: true, StatusCode: resp.StatusCode}, nil
}

func (r endpointReply) messages() []string {
	var msgs []string
	for _, e := range r.Errors {
		if e.Message != "" {
			msgs = append(msgs, e.Message)
		}
	}
	if r.Error != nil {
		msgs = append(msgs, fmt.Sprint(r.Error))
	}
	return msgs
}
