// Package domain models community-submitted marine pollution reports.
//
// # Report Lifecycle
//
// A report is created from client input that passes full validation; the
// repository assigns its integer ID and CreatedAt timestamp. Afterwards any
// subset of the client-owned fields may be changed by a partial update, and
// the report may be deleted permanently. ID and CreatedAt never change.
//
// # Field Constraints
//
//	latitude       float in [-90, 90]
//	longitude      float in [-180, 180]
//	pollutionType  plastic | oil | sewage | abandoned | other
//	severity       low | moderate | high | critical
//	description    10 to 1000 characters (Unicode code points)
//	dateObserved   "YYYY-MM-DD" by pattern only; "2024-02-31" is accepted
//	timeObserved   optional, free-form
//	name           optional, free-form
//	email          optional; must be a valid address unless empty
//
// # Validation Results
//
// [ValidateCreate] and [ValidatePartial] accept the decoded JSON object
// (map[string]any) rather than a typed struct so that type mismatches and
// missing fields can be reported per field. Every violated field is reported,
// not just the first; see [ValidationError].
//
// # Error Taxonomy
//
//	*ValidationError  client data violates the schema (HTTP 400)
//	ErrNotFound       referenced report does not exist (HTTP 404)
//	*StorageFault     persistence failure (HTTP 500, generic message)
package domain
