package zuora

import "github.com/nucleus/ucl-zuora/internal/core"

// ShapeStream turns a field catalog into a stream schema.
// It returns nil when the stream is unavailable.
func ShapeStream(stream string, catalog FieldCatalog, status Status) *core.StreamSchema {
	if status == StatusUnavailable {
		return nil
	}

	properties := make(map[string]*core.PropertySchema, len(catalog.Fields)+1)
	for name, info := range catalog.Fields {
		properties[name] = shapeProperty(stream, name, info)
	}

	if status == StatusAvailableWithDeleted {
		properties[DeletedProperty] = &core.PropertySchema{Type: []string{core.TypeBoolean}}
	}

	return &core.StreamSchema{
		TapStreamID:   stream,
		Stream:        stream,
		KeyProperties: []string{PrimaryKey},
		Schema: core.ObjectSchema{
			Type:                 core.TypeObject,
			AdditionalProperties: false,
			Properties:           properties,
		},
		ReplicationKey: replicationKey(properties),
	}
}

func shapeProperty(stream, name string, info FieldInfo) *core.PropertySchema {
	prop := &core.PropertySchema{}

	base := string(info.Type)
	if info.Type.IsTemporal() {
		base = core.TypeString
		prop.Format = core.FormatDateTime
	}

	if info.Required && !CanBeNull(stream, name) {
		prop.Type = []string{base}
	} else {
		prop.Type = []string{base, core.TypeNull}
	}

	if IsRequiredKey(name) {
		prop.Inclusion = core.InclusionAutomatic
	} else {
		prop.Inclusion = core.InclusionAvailable
	}
	return prop
}

// replicationKey returns the first candidate present, or "" for full-refresh streams.
func replicationKey(properties map[string]*core.PropertySchema) string {
	for _, key := range replicationKeys {
		if _, ok := properties[key]; ok {
			return key
		}
	}
	return ""
}
