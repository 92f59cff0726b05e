package zuora

// NormalizedType is the connector-neutral type of a Zuora field.
type NormalizedType string

const (
	TypeString   NormalizedType = "string"
	TypeBoolean  NormalizedType = "boolean"
	TypeInteger  NormalizedType = "integer"
	TypeNumber   NormalizedType = "number"
	TypeDate     NormalizedType = "date"
	TypeDateTime NormalizedType = "datetime"
)

// IsTemporal reports whether values of this type are dates or timestamps.
func (t NormalizedType) IsTemporal() bool {
	return t == TypeDate || t == TypeDateTime
}

// providerTypes maps Zuora describe type tokens. Read-only.
var providerTypes = map[string]NormalizedType{
	"picklist": TypeString,
	"text":     TypeString,
	"boolean":  TypeBoolean,
	"integer":  TypeInteger,
	"decimal":  TypeNumber,
	"date":     TypeDate,
	"datetime": TypeDateTime,
}

// MapType translates a provider type token. ok is false for unsupported types.
func MapType(providerType string) (NormalizedType, bool) {
	t, ok := providerTypes[providerType]
	return t, ok
}

// =============================================================================
// KEY TABLES
// =============================================================================

// PrimaryKey is the key property of every Zuora stream.
const PrimaryKey = "Id"

// DeletedProperty is the synthetic soft-delete marker.
const DeletedProperty = "Deleted"

// replicationKeys is in priority order.
var replicationKeys = [...]string{
	"UpdatedDate",
	"TransactionDate",
	"UpdatedOn",
}

// nullableRequiredPaths are Stream.Field paths Zuora marks required but
// returns empty in practice.
var nullableRequiredPaths = map[string]struct{}{
	"Export.Size":                 {},
	"Import.TotalCount":           {},
	"Import.ResultResourceUrl":    {},
	"InvoiceItem.UOM":             {},
	"Payment.GatewayResponse":     {},
	"Payment.GatewayResponseCode": {},
	"RatePlanCharge.UOM":          {},
}

// ReplicationKeys returns the replication key candidates in priority order.
func ReplicationKeys() []string {
	keys := make([]string, len(replicationKeys))
	copy(keys, replicationKeys[:])
	return keys
}

// IsRequiredKey reports whether a field is always treated as required:
// the primary key and every replication key candidate.
func IsRequiredKey(name string) bool {
	if name == PrimaryKey {
		return true
	}
	for _, k := range replicationKeys {
		if k == name {
			return true
		}
	}
	return false
}

// CanBeNull reports whether stream.field stays nullable even when required.
func CanBeNull(stream, field string) bool {
	_, ok := nullableRequiredPaths[stream+"."+field]
	return ok
}
