// Package kvstore provides the device-scoped key-value storage that backs the
// local stats cache and the like ledger. Values are opaque strings keyed by
// string, matching the semantics of browser local storage. Backends are an
// in-memory mock (package mock), a JSON document on disk (File) and an SQLite
// database (SQLite); NewFromEnv picks one from environment variables.
package kvstore
