// Package zuora implements a Zuora connector that discovers the queryable data
// model of a Zuora tenant and shapes it into a singer-style stream catalog.
//
// Discovery flow:
//
//	GET v1/describe            -> advertised stream names
//	GET v1/describe/{stream}   -> field records -> FieldCatalog (export fields only)
//	Prober.StreamStatus        -> available | unavailable | available_with_deleted
//	ShapeStream                -> core.StreamSchema (nil when unavailable)
//
// Availability is probed either through the REST export API or through AQuA
// batch queries; AQuA also reports whether the soft-delete column is usable.
package zuora
