// Package reconcile keeps the counters shown on a page in step with the local
// cache and the counting endpoint.
//
// A page load runs in this order: collect ids, paint cached numbers, fetch
// fresh numbers batch by batch (each batch painted and cached before the next
// is requested), arm view reporting when the page shows exactly one item, and
// start accepting likes. Likes are applied optimistically and rolled back if
// the endpoint does not confirm them.
//
// View reports are not de-duplicated here; a page that is hidden and shown
// repeatedly reports once per hide.
package reconcile
