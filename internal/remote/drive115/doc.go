// Package drive115 implements remote.Client against the 115 web API.
//
// Requests authenticate with the browser session cookie. Listings are paged
// (1000 entries per request) and recursive listings walk folders breadth
// first. HTTP and API failures are mapped onto remote.Error kinds so the
// retry layer can tell expired sessions from transient faults.
package drive115
