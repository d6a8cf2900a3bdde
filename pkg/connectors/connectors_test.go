package connectors

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/samvad-hq/samvad-connector/pkg/auth"
	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

const sampleYAML = `
connectors:
  - id: " menu "
    base_url: https://api.example.test/
    headers:
      Accept: application/json
      X-Empty: "  "
    auth:
      type: bearer
      endpoint: /oauth/token
      fields:
        grant_type: client_credentials
        client_id: ${TEST_MENU_CLIENT_ID}
  - id: status
    base_url: https://status.example.test
    timeout_seconds: 5
    raise_for_status: true
`

func TestLoadRegistryFromYAMLFile(t *testing.T) {
	t.Setenv("TEST_MENU_CLIENT_ID", "abc123")
	path := filepath.Join(t.TempDir(), "connectors.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	menu, ok := reg.ByID("menu")
	if !ok {
		t.Fatalf("menu connector not found; ids=%v", reg.IDs())
	}
	if menu.BaseURL != "https://api.example.test" {
		t.Fatalf("base url not trimmed: %q", menu.BaseURL)
	}
	if _, ok := menu.Headers["X-Empty"]; ok {
		t.Fatalf("empty header kept: %#v", menu.Headers)
	}
	if menu.TimeoutSeconds != defaultTimeoutSeconds {
		t.Fatalf("timeout default = %d", menu.TimeoutSeconds)
	}
	if menu.Auth.Method != "POST" || menu.Auth.Encoding != EncodingForm {
		t.Fatalf("auth defaults not applied: %#v", menu.Auth)
	}
	if menu.Auth.Fields["client_id"] != "abc123" {
		t.Fatalf("env not expanded: %#v", menu.Auth.Fields)
	}

	status, _ := reg.ByID("status")
	opts := status.TransportOptions()
	if !opts.RaiseForStatus || opts.Timeout != 5*time.Second {
		t.Fatalf("transport options = %#v", opts)
	}
	if got := reg.IDs(); len(got) != 2 || got[0] != "menu" || got[1] != "status" {
		t.Fatalf("IDs = %v", got)
	}
}

func TestParseRegistryJSON(t *testing.T) {
	raw := `{"connectors":[{"id":"a","base_url":"http://localhost:8080"}]}`
	reg, err := ParseRegistry([]byte(raw), ".json")
	if err != nil {
		t.Fatalf("ParseRegistry: %v", err)
	}
	if len(reg.All()) != 1 {
		t.Fatalf("expected one connector")
	}
}

func TestParseRegistryRejectsInvalid(t *testing.T) {
	cases := map[string]struct {
		body string
		want string
	}{
		"empty":        {body: "connectors: []", want: "no connectors"},
		"missing id":   {body: "connectors:\n  - base_url: https://x.test", want: "id is required"},
		"relative url": {body: "connectors:\n  - id: a\n    base_url: /api", want: "base_url must be an absolute URL"},
		"duplicate": {
			body: "connectors:\n  - id: a\n    base_url: https://x.test\n  - id: a\n    base_url: https://y.test",
			want: "duplicate connector id",
		},
		"bad auth type": {
			body: "connectors:\n  - id: a\n    base_url: https://x.test\n    auth:\n      type: basic\n      endpoint: /token",
			want: "auth.type must be one of",
		},
		"bad endpoint": {
			body: "connectors:\n  - id: a\n    base_url: https://x.test\n    auth:\n      type: bearer\n      endpoint: token",
			want: "auth.endpoint must start with /",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tc.body), ".yaml")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestParseRegistryUnsupportedExtension(t *testing.T) {
	if _, err := ParseRegistry([]byte("connectors: []"), ".toml"); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestBuildWithoutAuthUsesStaticHeaders(t *testing.T) {
	mock := httpclient.NewMockClient(httpclient.JSONResponse(200, map[string]any{"ok": true}))
	built, err := Build(Definition{
		ID:      "plain",
		BaseURL: "https://api.example.test",
		Headers: map[string]string{"Accept": "application/json"},
	}, mock)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.Bearer != nil {
		t.Fatalf("unexpected bearer")
	}

	if _, err := built.Connector.Send(context.Background(), connector.Call{Verb: connector.MethodGet, Path: "/ping"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	req, _ := mock.LastRequest()
	if req.URL != "https://api.example.test/ping" || req.Headers["Accept"] != "application/json" {
		t.Fatalf("unexpected request %#v", req)
	}
}

func TestBuildWithFormBearer(t *testing.T) {
	mock := httpclient.NewMockClient().
		On("POST", "https://api.example.test/oauth/token", httpclient.JSONResponse(200, map[string]any{"access_token": "tok"})).
		On("GET", "https://api.example.test/menu", httpclient.JSONResponse(200, []any{1, 2}))

	built, err := Build(Definition{
		ID:      "menu",
		BaseURL: "https://api.example.test",
		Auth: &AuthConfig{
			Type:     AuthBearer,
			Endpoint: "/oauth/token",
			Method:   "POST",
			Encoding: EncodingForm,
			Fields:   map[string]string{"grant_type": "client_credentials"},
		},
	}, mock)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got, err := built.Connector.Send(context.Background(), connector.Call{Verb: connector.MethodGet, Path: "/menu"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if data, ok := got[connector.DataKey].([]any); !ok || len(data) != 2 {
		t.Fatalf("unexpected response %#v", got)
	}

	reqs := mock.Requests()
	if len(reqs) != 2 {
		t.Fatalf("expected token + call, got %d", len(reqs))
	}
	form, err := url.ParseQuery(string(reqs[0].Body))
	if err != nil || form.Get("grant_type") != "client_credentials" {
		t.Fatalf("token body = %q", reqs[0].Body)
	}
	if reqs[0].Headers[connector.HeaderContentType] != connector.ContentTypeForm {
		t.Fatalf("token content type = %#v", reqs[0].Headers)
	}
	if reqs[1].Headers[auth.HeaderAuthorization] != "Bearer tok" {
		t.Fatalf("missing bearer header: %#v", reqs[1].Headers)
	}
}

func TestBuildWithJSONBearer(t *testing.T) {
	mock := httpclient.NewMockClient(httpclient.JSONResponse(200, map[string]any{"token": "j"}))
	built, err := Build(Definition{
		ID:      "json",
		BaseURL: "https://api.example.test",
		Auth: &AuthConfig{
			Type:       AuthBearer,
			Endpoint:   "/login",
			Method:     "POST",
			Encoding:   EncodingJSON,
			Fields:     map[string]string{"user": "u"},
			TokenField: "token",
		},
	}, mock)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	tok, err := built.Bearer.Token(context.Background())
	if err != nil || tok != "j" {
		t.Fatalf("Token = %q, %v", tok, err)
	}
	req, _ := mock.LastRequest()
	if string(req.Body) != `{"user":"u"}` || req.Headers[connector.HeaderContentType] != connector.ContentTypeJSON {
		t.Fatalf("token request = %#v", req)
	}
}

func TestBuildRejectsNilTransport(t *testing.T) {
	if _, err := Build(Definition{ID: "x", BaseURL: "https://x.test"}, nil); err == nil {
		t.Fatalf("expected error for nil transport")
	}
}
