// Package druid is a client for Druid brokers' native query API.
//
// A Client posts one query per call to a broker chosen by its pool and
// decodes the answer into typed envelopes from pkg/response:
//
//	c, err := druid.New([]string{"localhost:8082"})
//	rows, err := druid.TopN[PageCount](ctx, c, q)
//
// Calls never retry and keep no state between each other besides the
// broker pool's selection index.
package druid

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/leapstack-labs/druidql/pkg/broker"
	"github.com/leapstack-labs/druidql/pkg/query"
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// QueryPath is the broker's native query endpoint.
const QueryPath = "/druid/v2/"

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client runs native queries against a pool of brokers. It is safe for
// concurrent use.
type Client struct {
	http     Doer
	pool     broker.Pool
	strategy broker.Strategy
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the transport. Timeouts configured on it surface as
// transport errors.
func WithHTTPClient(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithLogger sets the logger for debug records. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStrategy overrides the default broker selection strategy.
func WithStrategy(s broker.Strategy) Option {
	return func(c *Client) {
		c.strategy = s
	}
}

// WithPool replaces the static pool built from the broker list.
func WithPool(p broker.Pool) Option {
	return func(c *Client) {
		c.pool = p
	}
}

// New creates a client over brokers ("host:port"). The list may be empty
// only when WithPool is given.
func New(brokers []string, opts ...Option) (*Client, error) {
	c := &Client{
		http:   http.DefaultClient,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pool == nil {
		pool, err := broker.NewStaticPool(brokers, c.strategy)
		if err != nil {
			return nil, fmt.Errorf("druid: %w", err)
		}
		c.pool = pool
	}
	return c, nil
}

// Pool returns the broker pool in use.
func (c *Client) Pool() broker.Pool { return c.pool }

// Do sends req to a broker and decodes the response body into v. Errors are
// always *Error.
func (c *Client) Do(ctx context.Context, req query.Request, v any) error {
	body, err := serde.Marshal(req)
	if err != nil {
		return &Error{Kind: KindSerialization, Err: err}
	}
	data, status, err := c.post(ctx, req.QueryType(), body)
	if err != nil {
		return err
	}
	if err := serde.Unmarshal(data, v); err != nil {
		return &Error{Kind: KindResponseParsing, Status: status, Body: data, Err: err}
	}
	return nil
}

// DoRaw sends an already encoded query and returns the raw response body,
// after the same error checks as Do.
func (c *Client) DoRaw(ctx context.Context, body []byte) ([]byte, error) {
	queryType, err := serde.Tag(body, "queryType")
	if err != nil {
		return nil, &Error{Kind: KindSerialization, Err: err}
	}
	data, _, err := c.post(ctx, queryType, body)
	return data, err
}

// post sends body to the next broker and returns the response body and
// status code.
func (c *Client) post(ctx context.Context, queryType string, body []byte) ([]byte, int, error) {
	addr := c.pool.Broker()
	url := "http://" + addr + QueryPath + "?pretty"
	c.logger.Debug("sending query", "broker", addr, "query_type", queryType, "bytes", len(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &Error{Kind: KindTransport, Status: resp.StatusCode, Err: err}
	}
	c.logger.Debug("query complete",
		"broker", addr,
		"query_type", queryType,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	if !serde.Valid(data) {
		return nil, 0, &Error{
			Kind:   KindResponseParsing,
			Status: resp.StatusCode,
			Body:   data,
			Err:    fmt.Errorf("body is not JSON"),
		}
	}
	if serde.Has(data, "error") {
		return nil, 0, &Error{Kind: KindServer, Status: resp.StatusCode, Body: data}
	}
	return data, resp.StatusCode, nil
}
