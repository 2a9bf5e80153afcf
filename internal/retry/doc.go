// Package retry runs remote operations under the process-wide retry policy.
//
// Every attempt gets its own deadline and runs on a separate goroutine, so a
// call that ignores its context still cannot stall the agent. Authentication
// failures are returned immediately; everything else is retried with linear
// backoff and, once attempts are exhausted, reported through an alert.
package retry
