package core

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// SCHEMA TYPES
// JSON-schema-like vocabulary used in discovered stream schemas.
// =============================================================================

const (
	TypeString  = "string"
	TypeBoolean = "boolean"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeNull    = "null"
	TypeObject  = "object"

	FormatDateTime = "date-time"
)

// Inclusion tells the downstream pipeline whether a field is selected by default.
type Inclusion string

const (
	InclusionAutomatic Inclusion = "automatic"
	InclusionAvailable Inclusion = "available"
)

// =============================================================================
// PROPERTY SCHEMA
// =============================================================================

// PropertySchema describes one property of a stream.
// Type holds either a single JSON type or the type followed by "null".
type PropertySchema struct {
	Type      []string
	Format    string
	Inclusion Inclusion
}

// Nullable reports whether the property admits null.
func (p *PropertySchema) Nullable() bool {
	for _, t := range p.Type {
		if t == TypeNull {
			return true
		}
	}
	return false
}

// BaseType returns the first non-null type.
func (p *PropertySchema) BaseType() string {
	for _, t := range p.Type {
		if t != TypeNull {
			return t
		}
	}
	return ""
}

type propertySchemaJSON struct {
	Type      json.RawMessage `json:"type"`
	Format    string          `json:"format,omitempty"`
	Inclusion Inclusion       `json:"inclusion,omitempty"`
}

// MarshalJSON writes a single type as a bare string and a union as an array.
func (p PropertySchema) MarshalJSON() ([]byte, error) {
	var (
		typ []byte
		err error
	)
	if len(p.Type) == 1 {
		typ, err = json.Marshal(p.Type[0])
	} else {
		typ, err = json.Marshal(p.Type)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(propertySchemaJSON{Type: typ, Format: p.Format, Inclusion: p.Inclusion})
}

// UnmarshalJSON accepts both the string and the array form of "type".
func (p *PropertySchema) UnmarshalJSON(data []byte) error {
	var raw propertySchemaJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Format = raw.Format
	p.Inclusion = raw.Inclusion
	p.Type = nil
	if len(raw.Type) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw.Type, &single); err == nil {
		p.Type = []string{single}
		return nil
	}
	var union []string
	if err := json.Unmarshal(raw.Type, &union); err != nil {
		return fmt.Errorf("property type: %w", err)
	}
	p.Type = union
	return nil
}

// =============================================================================
// STREAM SCHEMA
// =============================================================================

// ObjectSchema is the top-level schema of a stream.
type ObjectSchema struct {
	Type                 string                     `json:"type"`
	AdditionalProperties bool                       `json:"additionalProperties"`
	Properties           map[string]*PropertySchema `json:"properties"`
}

// StreamSchema is one catalog entry.
type StreamSchema struct {
	TapStreamID    string       `json:"tap_stream_id"`
	Stream         string       `json:"stream"`
	KeyProperties  []string     `json:"key_properties"`
	Schema         ObjectSchema `json:"schema"`
	ReplicationKey string       `json:"replication_key,omitempty"`
}

// Incremental reports whether the stream has a replication key.
func (s *StreamSchema) Incremental() bool {
	return s.ReplicationKey != ""
}

// Property returns the named property schema, or nil.
func (s *StreamSchema) Property(name string) *PropertySchema {
	if s.Schema.Properties == nil {
		return nil
	}
	return s.Schema.Properties[name]
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is the ordered list of discovered streams.
type Catalog struct {
	Streams []*StreamSchema `json:"streams"`
}

// Stream returns the stream with the given name, or nil.
func (c *Catalog) Stream(name string) *StreamSchema {
	for _, s := range c.Streams {
		if s.Stream == name {
			return s
		}
	}
	return nil
}

// Names returns stream names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.Streams))
	for _, s := range c.Streams {
		names = append(names, s.Stream)
	}
	return names
}

// Marshal encodes the catalog as indented JSON.
func (c *Catalog) Marshal() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// UnmarshalCatalog decodes a catalog produced by Marshal.
func UnmarshalCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}
