package report

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/fixtures"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{&connector.EncodingError{Err: errors.New("x")}, KindEncoding},
		{&connector.TransportError{Method: connector.MethodGet, URL: "u", Err: errors.New("x")}, KindTransport},
		{fmt.Errorf("wrapped: %w", &connector.HTTPError{StatusCode: 500}), KindHTTP},
		{&connector.DecodingError{Err: errors.New("x")}, KindDecoding},
		{errors.New("plain"), KindOther},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestDescribeHTTPBodies(t *testing.T) {
	cases := []struct {
		name string
		err  *connector.HTTPError
		want string
	}{
		{"json message", &connector.HTTPError{StatusCode: 404, Body: `{"message":"Product not found"}`}, "Product not found"},
		{"nested error", &connector.HTTPError{StatusCode: 400, Body: `{"error":{"message":"bad qty"}}`}, "bad qty"},
		{"html title", &connector.HTTPError{StatusCode: 502, Body: "<html><head><title>502 Bad Gateway</title></head><body></body></html>"}, "502 Bad Gateway"},
		{"html h1", &connector.HTTPError{StatusCode: 503, Body: "<html><body><h1>Maintenance</h1></body></html>"}, "Maintenance"},
		{"plain text", &connector.HTTPError{StatusCode: 500, Body: "  boom\n  again "}, "boom again"},
		{"empty body", &connector.HTTPError{StatusCode: 503, Message: "503 Service Unavailable"}, "503 Service Unavailable"},
		{"nothing", &connector.HTTPError{StatusCode: 418}, "status 418"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sum := Describe(tc.err)
			if sum.Kind != KindHTTP || sum.StatusCode != tc.err.StatusCode {
				t.Fatalf("unexpected summary %#v", sum)
			}
			if sum.Detail != tc.want {
				t.Fatalf("Detail = %q, want %q", sum.Detail, tc.want)
			}
		})
	}
}

func TestDescribeLimitsSnippet(t *testing.T) {
	sum := Describe(&connector.HTTPError{StatusCode: 500, Body: strings.Repeat("x", 2000)})
	if len(sum.Detail) != snippetLimit {
		t.Fatalf("snippet length = %d", len(sum.Detail))
	}
}

func TestDescribeSnippetKeepsRunesWhole(t *testing.T) {
	body := strings.Repeat("x", snippetLimit-1) + strings.Repeat("é", 10)
	sum := Describe(&connector.HTTPError{StatusCode: 500, Body: body})
	if !utf8.ValidString(sum.Detail) {
		t.Fatalf("snippet is not valid UTF-8: %q", sum.Detail[len(sum.Detail)-4:])
	}
	if sum.Detail != strings.Repeat("x", snippetLimit-1) {
		t.Fatalf("snippet length = %d", len(sum.Detail))
	}
}

func TestDescribeFixtureMissing(t *testing.T) {
	err := &connector.TransportError{Method: connector.MethodGet, URL: "u", Err: fmt.Errorf("%w: GET u", fixtures.ErrFixtureMissing)}
	sum := Describe(err)
	if sum.Kind != KindTransport || !strings.Contains(sum.Detail, "fixture") {
		t.Fatalf("unexpected summary %#v", sum)
	}
	if !strings.HasPrefix(sum.String(), "transport error: ") {
		t.Fatalf("String() = %q", sum.String())
	}
}

func TestDescribeNil(t *testing.T) {
	if sum := Describe(nil); sum != (Summary{}) {
		t.Fatalf("expected zero summary, got %#v", sum)
	}
}
