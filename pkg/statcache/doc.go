// Package statcache keeps the last known counters and the "already liked"
// markers on the device. Both live in a kvstore.Storage: the counters as one
// JSON blob under a fixed key, the markers as one key per liked item.
//
// Nothing in this package surfaces storage failures. A corrupt or unreadable
// blob loads as an empty mapping and failed writes are dropped, so the worst
// outcome is stale or missing numbers.
package statcache
