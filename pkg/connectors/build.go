package connectors

import (
	"fmt"
	"net/url"
	"time"

	"github.com/samvad-hq/samvad-connector/pkg/auth"
	"github.com/samvad-hq/samvad-connector/pkg/connector"
	"github.com/samvad-hq/samvad-connector/pkg/httpclient"
)

// Built is a connector assembled from a Definition. Bearer is nil unless the
// definition configures auth.
type Built struct {
	Definition Definition
	Connector  *connector.Connector
	Bearer     *auth.Bearer
}

// TransportOptions derives the resty transport settings for def.
func (def Definition) TransportOptions() httpclient.Options {
	return httpclient.Options{
		Timeout:        time.Duration(def.TimeoutSeconds) * time.Second,
		RaiseForStatus: def.RaiseForStatus,
	}
}

// Build assembles a Connector for def on top of client.
func Build(def Definition, client httpclient.Client) (*Built, error) {
	if client == nil {
		return nil, fmt.Errorf("connector %q: transport is nil", def.ID)
	}

	if def.Auth == nil {
		conn, err := connector.New(connector.StaticTarget{URL: def.BaseURL, Headers: def.Headers}, client)
		if err != nil {
			return nil, fmt.Errorf("connector %q: %w", def.ID, err)
		}
		return &Built{Definition: def, Connector: conn}, nil
	}

	tokenReq, err := tokenRequest(*def.Auth)
	if err != nil {
		return nil, fmt.Errorf("connector %q: %w", def.ID, err)
	}
	bearer := auth.NewBearer(tokenReq,
		auth.WithTokenField(def.Auth.TokenField),
		auth.WithBaseHeaders(def.Headers),
	)
	conn, err := connector.New(connector.DynamicTarget{URL: def.BaseURL, HeadersFunc: bearer.DefaultHeaders}, client)
	if err != nil {
		return nil, fmt.Errorf("connector %q: %w", def.ID, err)
	}
	bearer.Attach(conn)
	return &Built{Definition: def, Connector: conn, Bearer: bearer}, nil
}

func tokenRequest(cfg AuthConfig) (connector.Request, error) {
	if cfg.Type != AuthBearer {
		return nil, fmt.Errorf("unsupported auth type %q", cfg.Type)
	}
	method, err := connector.ParseMethod(cfg.Method)
	if err != nil {
		return nil, err
	}

	switch cfg.Encoding {
	case EncodingForm:
		fields := url.Values{}
		for k, v := range cfg.Fields {
			fields.Set(k, v)
		}
		return connector.Form{Verb: method, Path: cfg.Endpoint, Fields: fields}, nil
	case EncodingJSON:
		var payload map[string]any
		if len(cfg.Fields) > 0 {
			payload = make(map[string]any, len(cfg.Fields))
			for k, v := range cfg.Fields {
				payload[k] = v
			}
		}
		return connector.Call{Verb: method, Path: cfg.Endpoint, Payload: payload}, nil
	default:
		return nil, fmt.Errorf("unsupported auth encoding %q", cfg.Encoding)
	}
}
