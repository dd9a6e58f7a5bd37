// Package types defines the data model shared by the taxonomy engine, its
// storage backends and the taxon CLI: property definitions and their source
// variants, the transient Group and Option values produced by resolution,
// caller selections, suggestion candidates, the Store interface and the
// standard error values.
package types
