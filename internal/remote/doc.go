// Package remote defines the contract between drivemover and the cloud drive:
// folder listing, recursive file listing, batch moves, and the account
// identity probe used by the session watchdog.
//
// Implementations report failures as *Error so callers can classify them by
// Kind instead of parsing messages. drive115 provides the HTTP implementation;
// internal/testsupport provides an in-memory fake.
package remote
