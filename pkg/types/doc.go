// Package types defines the schema, row, search and repository types shared
// by the planbook engines, together with the standard errors they return.
//
// The engines (grid, narrative, search, nav) depend only on this package, so
// any persistence layer that satisfies TableRepository and
// SingleEntryRepository can back them.
package types
