// Package notifications delivers operator alerts and post-cycle callbacks.
//
// Alerts are published to an ntfy-compatible endpoint (plain text body with
// Title, Priority, and Tags headers). The callback receives a JSON summary of
// each cycle that moved at least one file. Both are fire-and-forget: failures
// are logged at WARN and never reach the caller. When neither endpoint is
// configured a no-op dispatcher is returned.
package notifications
