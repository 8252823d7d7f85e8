// Package remote talks to the counting endpoint. Every call is a JSON POST to
// one URL: batched reads ("get"), fire-and-forget view reports ("view") and
// confirmed likes ("like").
//
// View reports travel through a Sender. The default is a BeaconSender, a
// non-blocking queue drained by one background worker, backed by a
// KeepaliveSender that fires a detached request whenever the queue refuses a
// payload. Neither path ever reports an error to the caller.
package remote
