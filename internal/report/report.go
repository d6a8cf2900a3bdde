// Package report renders connector errors as short human-readable summaries
// for the CLI and logs.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/fixtures"
)

const snippetLimit = 512

// Kind names the error category of a failed Send.
type Kind string

const (
	KindNone      Kind = ""
	KindEncoding  Kind = "encoding"
	KindTransport Kind = "transport"
	KindHTTP      Kind = "http"
	KindDecoding  Kind = "decoding"
	KindOther     Kind = "other"
)

// Summary is the rendered view of an error.
type Summary struct {
	Kind       Kind   `json:"kind"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail"`
}

func (s Summary) String() string {
	if s.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", s.Kind, s.StatusCode, s.Detail)
	}
	return fmt.Sprintf("%s error: %s", s.Kind, s.Detail)
}

// Classify returns the error category of err.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case connector.IsEncoding(err):
		return KindEncoding
	case connector.IsDecoding(err):
		return KindDecoding
	case connector.IsTransport(err):
		return KindTransport
	}
	if _, ok := connector.AsHTTPError(err); ok {
		return KindHTTP
	}
	return KindOther
}

// Describe summarizes err. HTTP error bodies are reduced to the most useful
// line: a JSON message field, an HTML page title, or a trimmed snippet.
func Describe(err error) Summary {
	kind := Classify(err)
	if kind == KindNone {
		return Summary{}
	}

	sum := Summary{Kind: kind, Detail: err.Error()}
	if httpErr, ok := connector.AsHTTPError(err); ok {
		sum.StatusCode = httpErr.StatusCode
		sum.Detail = firstNonEmpty(bodyDetail([]byte(httpErr.Body)), httpErr.Message, fmt.Sprintf("status %d", httpErr.StatusCode))
	}
	if errors.Is(err, fixtures.ErrFixtureMissing) {
		sum.Detail = "no recorded fixture for this request; run with fixture mode record or auto"
	}
	return sum
}

func bodyDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '{' {
		if msg := jsonMessage(trimmed); msg != "" {
			return msg
		}
	}
	if trimmed[0] == '<' {
		if msg, err := htmlMessage(trimmed); err == nil && msg != "" {
			return msg
		}
	}
	return snippet(trimmed)
}

func jsonMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error_description", "detail", "error", "title"} {
		switch v := payload[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s, ok := v["message"].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func htmlMessage(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return firstNonEmpty(
		strings.TrimSpace(doc.Find("title").First().Text()),
		strings.TrimSpace(doc.Find("h1").First().Text()),
		extract(`meta[name="description"]`),
	), nil
}

func snippet(body []byte) string {
	if len(body) > snippetLimit {
		cut := snippetLimit
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return strings.Join(strings.Fields(string(body)), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
