// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "sqlite"   (placestat/internal/storage/sqlite)
//   - "postgres" (placestat/internal/storage/postgres)
//
// Typical usage (in cmd/placeload/main.go or a similar wiring layer):
//
//	import _ "placestat/internal/storage/all" // enable all built-in backends
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application to depend only on the storage
// abstraction rather than individual backends. A binary that needs only a
// subset of backends can import the concrete packages directly instead.
package all

import (
	_ "placestat/internal/storage/postgres"
	_ "placestat/internal/storage/sqlite"
)
