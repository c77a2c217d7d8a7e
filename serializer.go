package hammock

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"mime"
)

// Serializer encodes a request entity into a body.
type Serializer interface {
	Serialize(entity any) ([]byte, error)
	ContentType() string
}

// Deserializer decodes response content into target, which is a pointer.
type Deserializer interface {
	Deserialize(content []byte, contentType string, target any) error
}

// JSONSerializer is a Serializer and Deserializer for JSON bodies. Unknown
// fields in responses are ignored unless DisallowUnknownFields is set.
type JSONSerializer struct {
	Indent                string
	DisallowUnknownFields bool
}

// NewJSONSerializer returns a JSONSerializer with default settings.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Serialize(entity any) ([]byte, error) {
	if s.Indent != "" {
		return json.MarshalIndent(entity, "", s.Indent)
	}
	return json.Marshal(entity)
}

func (s *JSONSerializer) ContentType() string {
	return "application/json"
}

func (s *JSONSerializer) Deserialize(content []byte, _ string, target any) error {
	dec := json.NewDecoder(bytes.NewReader(content))
	if s.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(target)
}

// XMLSerializer is a Serializer and Deserializer for XML bodies.
type XMLSerializer struct{}

func (XMLSerializer) Serialize(entity any) ([]byte, error) {
	body, err := xml.Marshal(entity)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

func (XMLSerializer) ContentType() string {
	return "application/xml"
}

func (XMLSerializer) Deserialize(content []byte, _ string, target any) error {
	return xml.Unmarshal(content, target)
}

// ContentNegotiator picks a Deserializer by response media type and falls
// back to Default when no entry matches.
type ContentNegotiator struct {
	ByMediaType map[string]Deserializer
	Default     Deserializer
}

// Deserialize dispatches on the media type of contentType.
func (n *ContentNegotiator) Deserialize(content []byte, contentType string, target any) error {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if d, ok := n.ByMediaType[mediaType]; ok {
			return d.Deserialize(content, contentType, target)
		}
	}
	if n.Default == nil {
		return ErrMissingDeserializer
	}
	return n.Default.Deserialize(content, contentType, target)
}
