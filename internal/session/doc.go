// Package session keeps the drive session usable: it caches the session
// cookie on disk and periodically probes the account endpoint to detect an
// expired session before moves start failing.
package session
