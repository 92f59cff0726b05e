// Package core provides shared data models used across the Zuora connector,
// its catalog stores and the services that expose discovery.
// These models are implementation-agnostic and carry no transport concerns.
//
// Structure:
//
//	catalog.go    - StreamSchema, PropertySchema, Catalog (singer-style catalog)
package core
