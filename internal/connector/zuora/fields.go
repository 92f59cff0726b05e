package zuora

import (
	"log/slog"
	"strings"
)

// ContextExport tags fields usable in bulk exports.
const ContextExport = "export"

// =============================================================================
// DESCRIBE PAYLOADS
// Decoded at the transport boundary; the rest of the package never sees XML.
// =============================================================================

// describeList is the v1/describe payload.
type describeList struct {
	Objects []struct {
		Name string `xml:"name"`
	} `xml:"object"`
}

// describeObject is the v1/describe/{stream} payload.
type describeObject struct {
	Name   string        `xml:"name"`
	Fields []FieldRecord `xml:"fields>field"`
}

// FieldRecord is one <field> element of a describe payload.
// Pointer members distinguish a missing element from an empty one.
type FieldRecord struct {
	Name     *string       `xml:"name"`
	Type     *string       `xml:"type"`
	Required *string       `xml:"required"`
	Contexts *contextsList `xml:"contexts"`
}

type contextsList struct {
	Items []string `xml:"context"`
}

// NewFieldRecord builds a complete record, mostly for tests and fixtures.
func NewFieldRecord(name, providerType string, required bool, contexts ...string) FieldRecord {
	req := "false"
	if required {
		req = "true"
	}
	return FieldRecord{
		Name:     &name,
		Type:     &providerType,
		Required: &req,
		Contexts: &contextsList{Items: contexts},
	}
}

// =============================================================================
// FIELD PARSER
// =============================================================================

// FieldDescriptor is the parsed form of a FieldRecord.
// Type is empty when the provider type has no mapping.
type FieldDescriptor struct {
	Name         string
	ProviderType string
	Type         NormalizedType
	Required     bool
	Contexts     map[string]struct{}
}

// Supported reports whether the field's type is mapped.
func (f FieldDescriptor) Supported() bool {
	return f.Type != ""
}

// HasContext reports whether the field carries the given usage context.
func (f FieldDescriptor) HasContext(ctx string) bool {
	_, ok := f.Contexts[ctx]
	return ok
}

// ParseField decodes one field record. Missing sub-elements are a *ParseError.
func ParseField(rec FieldRecord) (FieldDescriptor, error) {
	if rec.Name == nil || strings.TrimSpace(*rec.Name) == "" {
		return FieldDescriptor{}, &ParseError{Reason: "missing name"}
	}
	name := strings.TrimSpace(*rec.Name)
	if rec.Type == nil {
		return FieldDescriptor{}, &ParseError{Field: name, Reason: "missing type"}
	}
	if rec.Required == nil {
		return FieldDescriptor{}, &ParseError{Field: name, Reason: "missing required"}
	}
	if rec.Contexts == nil {
		return FieldDescriptor{}, &ParseError{Field: name, Reason: "missing contexts"}
	}

	providerType := strings.TrimSpace(*rec.Type)
	normalized, _ := MapType(providerType)

	contexts := make(map[string]struct{}, len(rec.Contexts.Items))
	for _, c := range rec.Contexts.Items {
		contexts[strings.TrimSpace(c)] = struct{}{}
	}

	return FieldDescriptor{
		Name:         name,
		ProviderType: providerType,
		Type:         normalized,
		Required:     strings.EqualFold(strings.TrimSpace(*rec.Required), "true") || IsRequiredKey(name),
		Contexts:     contexts,
	}, nil
}

// =============================================================================
// FIELD CATALOG
// =============================================================================

// FieldInfo is what the shaper needs to know about a kept field.
type FieldInfo struct {
	Type     NormalizedType
	Required bool
}

// DropReason explains why a field was left out of the catalog.
type DropReason string

const (
	DropUnsupportedType DropReason = "unsupported_type"
	DropNotExportable   DropReason = "not_exportable"
)

// DroppedField records a field excluded from the shaped schema.
type DroppedField struct {
	Name         string
	ProviderType string
	Reason       DropReason
}

// FieldCatalog holds the exportable, supported fields of one stream.
type FieldCatalog struct {
	Fields  map[string]FieldInfo
	Dropped []DroppedField
}

// BuildFieldCatalog parses records and keeps supported fields tagged for export.
// Dropped fields are logged at debug level and listed in Dropped.
func BuildFieldCatalog(stream string, records []FieldRecord, logger *slog.Logger) (FieldCatalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	catalog := FieldCatalog{Fields: make(map[string]FieldInfo, len(records))}
	for _, rec := range records {
		field, err := ParseField(rec)
		if err != nil {
			if perr, ok := err.(*ParseError); ok {
				perr.Stream = stream
			}
			return FieldCatalog{}, err
		}

		switch {
		case !field.Supported():
			logger.Debug("field has an unsupported data type",
				"stream", stream, "field", field.Name, "type", field.ProviderType)
			catalog.Dropped = append(catalog.Dropped, DroppedField{
				Name: field.Name, ProviderType: field.ProviderType, Reason: DropUnsupportedType,
			})
		case !field.HasContext(ContextExport):
			logger.Debug("field not available for export",
				"stream", stream, "field", field.Name)
			catalog.Dropped = append(catalog.Dropped, DroppedField{
				Name: field.Name, ProviderType: field.ProviderType, Reason: DropNotExportable,
			})
		default:
			catalog.Fields[field.Name] = FieldInfo{Type: field.Type, Required: field.Required}
		}
	}

	return catalog, nil
}
