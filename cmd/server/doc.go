// Package main is the entry point for the ChatKit session gateway.
//
// The gateway brokers short-lived ChatKit session credentials for a
// browser widget and serves the widget's static files.
//
// Architecture:
//
//	Browser (widget) → Gateway → OpenAI ChatKit API (session minting)
//
// The server provides:
//   - POST /api/create-session for credential issuance
//   - /api/clear-session to drop the identity cookie
//   - Retrying upstream calls behind a circuit breaker
//   - Static asset passthrough for the widget bundle
//   - Prometheus metrics and health endpoints
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//
// Usage:
//
//	OPENAI_API_KEY=sk-... CHATKIT_WORKFLOW_ID=wf_... ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
