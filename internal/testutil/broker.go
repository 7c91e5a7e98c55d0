package testutil

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/leapstack-labs/druidql/pkg/serde"
)

// QueryPath is the native query endpoint served by FakeBroker.
const QueryPath = "/druid/v2/"

// RecordedRequest is one query received by a FakeBroker.
type RecordedRequest struct {
	QueryType string
	Body      []byte
	Pretty    bool
}

type cannedResponse struct {
	status int
	body   string
}

// FakeBroker is an httptest server that answers native queries with canned
// bodies chosen by queryType. Unmatched queries get a Druid-style error.
type FakeBroker struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]cannedResponse
	requests  []RecordedRequest
}

// NewFakeBroker starts a fake broker that is closed when the test ends.
func NewFakeBroker(t testing.TB) *FakeBroker {
	t.Helper()
	b := &FakeBroker{responses: map[string]cannedResponse{}}

	r := chi.NewMux()
	r.Use(
		middleware.Recoverer,
		middleware.AllowContentType("application/json"),
	)
	r.Post(QueryPath, b.serveQuery)

	b.server = httptest.NewServer(r)
	t.Cleanup(b.server.Close)
	return b
}

// Respond registers the body returned for queries of queryType. An empty
// queryType matches any query without a more specific response.
func (b *FakeBroker) Respond(queryType string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[queryType] = cannedResponse{status: status, body: body}
}

// Addr returns the broker's "host:port".
func (b *FakeBroker) Addr() string {
	return strings.TrimPrefix(b.server.URL, "http://")
}

// Close stops the server early, to provoke transport errors.
func (b *FakeBroker) Close() {
	b.server.Close()
}

// Requests returns the queries received so far.
func (b *FakeBroker) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]RecordedRequest, len(b.requests))
	copy(out, b.requests)
	return out
}

func (b *FakeBroker) serveQuery(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	queryType, err := serde.Tag(body, "queryType")
	if err != nil {
		writeDruidError(w, http.StatusBadRequest, "Malformed query", err.Error())
		return
	}

	b.mu.Lock()
	b.requests = append(b.requests, RecordedRequest{
		QueryType: queryType,
		Body:      body,
		Pretty:    r.URL.Query().Has("pretty"),
	})
	resp, ok := b.responses[queryType]
	if !ok {
		resp, ok = b.responses[""]
	}
	b.mu.Unlock()

	if !ok {
		writeDruidError(w, http.StatusInternalServerError, "Unknown exception",
			fmt.Sprintf("no canned response for %q", queryType))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	_, _ = io.WriteString(w, resp.body)
}

func writeDruidError(w http.ResponseWriter, status int, code, msg string) {
	body, _ := serde.Marshal(map[string]string{
		"error":        code,
		"errorMessage": msg,
		"errorClass":   "org.apache.druid.query.QueryException",
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
