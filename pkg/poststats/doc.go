// Package poststats wires the counting-service client, device storage and
// reconciler from environment variables. POSTSTATS_RUNTIME_MODE selects
// between a real endpoint (POSTSTATS_API_URL) and an in-process mock service,
// so the same program runs against production or offline without code
// changes.
package poststats
