package conditional

import (
	"encoding/json"
	"reflect"

	"gopkg.in/yaml.v3"
)

// A Codec encodes representations into one media type.
type Codec interface {
	// MediaTypes lists the media types the codec produces, canonical first.
	MediaTypes() []string
	// Encode returns the encoding of v.
	Encode(v any) ([]byte, error)
}

// A TypeRestrictedCodec is a Codec that only handles some types.
// Negotiation skips it for representations (or Collection elements)
// whose type it does not accept.
type TypeRestrictedCodec interface {
	Codec
	Accepts(t reflect.Type) bool
}

const (
	MediaTypeJSON = "application/json"
	MediaTypeYAML = "application/yaml"
)

// JSONCodec encodes representations as JSON.
type JSONCodec struct{}

func (JSONCodec) MediaTypes() []string {
	return []string{MediaTypeJSON}
}

func (JSONCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// YAMLCodec encodes representations as YAML.
type YAMLCodec struct{}

func (YAMLCodec) MediaTypes() []string {
	return []string{MediaTypeYAML, "application/x-yaml", "text/yaml"}
}

func (YAMLCodec) Encode(v any) ([]byte, error) {
	return yaml.Marshal(v)
}
