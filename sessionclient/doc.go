// Package sessionclient is a small SDK for programs embedding the ChatKit
// widget: it fetches session credentials from the gateway, caches them
// until shortly before expiry, and collapses concurrent refreshes into a
// single request.
//
// A Client corresponds to one widget embed. The underlying HTTP client
// keeps the gateway's identity cookie in a jar, so repeated issuances
// reach the gateway as the same browser identity would.
package sessionclient
