// Package session orchestrates ChatKit session issuance.
//
// The Service resolves which workflow a request targets, refuses calls the
// gateway is not configured for, delegates the upstream call to an Issuer,
// and classifies failures so the HTTP layer can map them to status codes.
//
// Issuance Flow:
//  1. Resolve workflow id (request fields, then configured default)
//  2. Verify the upstream API key is configured
//  3. Call the upstream API through the Issuer
//  4. Classify and log the outcome
//
// The package deliberately knows nothing about HTTP requests or cookies;
// identity resolution happens before a Request reaches it.
//
// Example Usage:
//
//	svc := session.NewService(cfg, issuer, logger, metrics)
//	resp, err := svc.Issue(ctx, session.Request{User: id, WorkflowID: "wf_1"})
package session
