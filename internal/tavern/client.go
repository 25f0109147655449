package tavern

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rshade/beacondash/internal/logging"
)

// DefaultTimeout bounds a single request when Options.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Operation is a named GraphQL document.
type Operation struct {
	Name  string
	Query string
}

// Fetcher executes an operation and returns the raw "data" object.
type Fetcher interface {
	Raw(ctx context.Context, op Operation, vars map[string]any) (json.RawMessage, error)
}

// Options configures a Client.
type Options struct {
	Endpoint    string
	Token       string
	TokenHeader string
	Timeout     time.Duration

	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client talks to a Tavern GraphQL endpoint.
type Client struct {
	endpoint    string
	token       string
	tokenHeader string
	http        *http.Client
}

// NewClient creates a client. The endpoint is required.
func NewClient(opts Options) (*Client, error) {
	if opts.Endpoint == "" {
		return nil, ErrNoEndpoint
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		endpoint:    opts.Endpoint,
		token:       opts.Token,
		tokenHeader: opts.TokenHeader,
		http:        httpClient,
	}, nil
}

// Endpoint returns the configured URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage     `json:"data"`
	Errors []GraphQLErrorEntry `json:"errors"`
}

// Raw posts op and returns the "data" member. Any entry in "errors" fails the
// call with *GraphQLError, even when partial data is present.
func (c *Client) Raw(ctx context.Context, op Operation, vars map[string]any) (json.RawMessage, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	body, err := json.Marshal(request{Query: op.Query, OperationName: op.Name, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", op.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", op.Name, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		if c.tokenHeader != "" {
			req.Header.Set(c.tokenHeader, c.token)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(snippet))}
	}

	var out response
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", op.Name, err)
	}
	if len(out.Errors) > 0 {
		return nil, &GraphQLError{Operation: op.Name, Errors: out.Errors}
	}

	logger.Debug().
		Str(logging.FieldComponent, "tavern").
		Str(logging.FieldOperation, op.Name).
		Dur("duration", time.Since(start)).
		Int("bytes", len(out.Data)).
		Msg("graphql request completed")
	return out.Data, nil
}

// Do runs op and decodes the data member into out.
func (c *Client) Do(ctx context.Context, op Operation, vars map[string]any, out any) error {
	return Decode(ctx, c, op, vars, out)
}

// Decode runs op through f and decodes the data member into out.
func Decode(ctx context.Context, f Fetcher, op Operation, vars map[string]any, out any) error {
	raw, err := f.Raw(ctx, op, vars)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", op.Name, err)
	}
	return nil
}

// Query runs op through f and decodes the data member into a new R.
func Query[R any](ctx context.Context, f Fetcher, op Operation, vars map[string]any) (R, error) {
	var out R
	err := Decode(ctx, f, op, vars, &out)
	return out, err
}
