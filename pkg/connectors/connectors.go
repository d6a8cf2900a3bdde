// Package connectors loads connector definitions from YAML or JSON files and
// turns them into ready connector.Connector values.
package connectors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	AuthBearer = "bearer"

	EncodingForm = "form"
	EncodingJSON = "json"

	defaultTimeoutSeconds = 30
	defaultAuthMethod     = "POST"
)

// configFile represents the structure of the connectors configuration file.
type configFile struct {
	Connectors []Definition `json:"connectors" yaml:"connectors"`
}

// Definition describes one target API.
type Definition struct {
	ID             string            `json:"id" yaml:"id" validate:"required"`
	BaseURL        string            `json:"base_url" yaml:"base_url" validate:"required,url"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
	RaiseForStatus bool              `json:"raise_for_status" yaml:"raise_for_status"`
	Auth           *AuthConfig       `json:"auth" yaml:"auth" validate:"omitempty"`
}

// AuthConfig configures a bearer token fetched from the connector's own API.
type AuthConfig struct {
	Type       string            `json:"type" yaml:"type" validate:"required,oneof=bearer"`
	Endpoint   string            `json:"endpoint" yaml:"endpoint" validate:"required,startswith=/"`
	Method     string            `json:"method" yaml:"method" validate:"required,oneof=GET POST PUT PATCH"`
	Encoding   string            `json:"encoding" yaml:"encoding" validate:"required,oneof=form json"`
	Fields     map[string]string `json:"fields" yaml:"fields"`
	TokenField string            `json:"token_field" yaml:"token_field"`
}

// Registry holds the validated definitions of a connectors file.
type Registry struct {
	mu   sync.RWMutex
	defs []Definition
	idx  map[string]Definition
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// LoadRegistry loads connector definitions from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("connectors file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open connectors file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read connectors file: %w", err)
	}
	return ParseRegistry(raw, filepath.Ext(path))
}

// ParseRegistry decodes and validates connectors file content. ext selects the
// decoder; an empty ext tries YAML then JSON.
func ParseRegistry(data []byte, ext string) (*Registry, error) {
	file, err := parseConfigFile(data, ext)
	if err != nil {
		return nil, err
	}
	if len(file.Connectors) == 0 {
		return nil, errors.New("connectors file contains no connectors entries")
	}

	reg := &Registry{
		defs: make([]Definition, len(file.Connectors)),
		idx:  make(map[string]Definition, len(file.Connectors)),
	}
	for i := range file.Connectors {
		def := sanitizeDefinition(file.Connectors[i])
		if err := validateDefinition(def); err != nil {
			return nil, fmt.Errorf("connectors[%d]: %w", i, err)
		}
		if _, exists := reg.idx[def.ID]; exists {
			return nil, fmt.Errorf("duplicate connector id %q", def.ID)
		}
		reg.defs[i] = def
		reg.idx[def.ID] = def
	}
	return reg, nil
}

func parseConfigFile(data []byte, ext string) (configFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var file configFile
		if err := d.fn(data, &file); err != nil {
			errs = append(errs, fmt.Errorf("decode %s connectors: %w", d.name, err))
			continue
		}
		return file, nil
	}
	if len(errs) == 0 {
		return configFile{}, fmt.Errorf("connectors file extension %q not supported (expected YAML or JSON)", ext)
	}
	return configFile{}, errors.Join(errs...)
}

func sanitizeDefinition(def Definition) Definition {
	def.ID = strings.TrimSpace(def.ID)
	def.BaseURL = strings.TrimRight(os.ExpandEnv(strings.TrimSpace(def.BaseURL)), "/")
	def.Headers = sanitizeHeaders(def.Headers)
	if def.TimeoutSeconds == 0 {
		def.TimeoutSeconds = defaultTimeoutSeconds
	}

	if def.Auth != nil {
		a := *def.Auth
		a.Type = strings.ToLower(strings.TrimSpace(a.Type))
		a.Endpoint = strings.TrimSpace(a.Endpoint)
		a.Method = strings.ToUpper(strings.TrimSpace(a.Method))
		if a.Method == "" {
			a.Method = defaultAuthMethod
		}
		a.Encoding = strings.ToLower(strings.TrimSpace(a.Encoding))
		if a.Encoding == "" {
			a.Encoding = EncodingForm
		}
		a.TokenField = strings.TrimSpace(a.TokenField)
		if len(a.Fields) > 0 {
			fields := make(map[string]string, len(a.Fields))
			for k, v := range a.Fields {
				if k = strings.TrimSpace(k); k != "" {
					fields[k] = os.ExpandEnv(strings.TrimSpace(v))
				}
			}
			a.Fields = fields
		}
		def.Auth = &a
	}
	return def
}

// sanitizeHeaders trims keys and values, expands ${ENV} references and drops
// empty entries.
func sanitizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		key := strings.TrimSpace(k)
		val := os.ExpandEnv(strings.TrimSpace(v))
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func validateDefinition(def Definition) error {
	err := getValidator().Struct(def)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s %s", fieldPath(fe), describeTag(fe)))
	}
	name := def.ID
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Errorf("connector %q: %s", name, strings.Join(msgs, "; "))
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return ns
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be an absolute URL"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "startswith":
		return "must start with " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	default:
		return "is invalid"
	}
}

// ByID returns the definition with the given id.
func (r *Registry) ByID(id string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Definition{}, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.idx[id]
	return def, ok
}

// All returns every definition in file order.
func (r *Registry) All() []Definition {
	if r == nil {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// IDs returns the sorted connector ids.
func (r *Registry) IDs() []string {
	defs := r.All()
	ids := make([]string, 0, len(defs))
	for _, d := range defs {
		ids = append(ids, d.ID)
	}
	sort.Strings(ids)
	return ids
}
