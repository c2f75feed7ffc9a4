// Package entities defines the business domain of the application: projects,
// fee proposals (RFPs), companies, contacts, and the supporting country and
// currency reference data, with their validation rules and the per-type store
// and directory constructors the UI layer consumes.
//
// Field names and JSON encodings mirror the backend's persisted records, so
// entities round-trip without translation. Record identifiers are handled by
// the identity package and are optional on entities that have not been
// persisted yet.
package entities
