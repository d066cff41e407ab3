// Package config provides 12-factor configuration management for the gateway.
//
// Configuration is loaded from environment variables with sensible defaults.
// A missing OPENAI_API_KEY does not fail loading; it is surfaced per-request
// so the gateway can boot and report the misconfiguration over HTTP.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - ChatKit: upstream API key, base URL, default workflow
//   - Retry: upstream retry count, backoff base, jitter
//   - Transport: per-phase upstream timeouts (connect, headers, body)
//   - Cookie: identity cookie flags
//   - Assets: static widget asset directory and allowlist patterns
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Gateway running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - OPENAI_API_KEY, CHATKIT_API_BASE, CHATKIT_WORKFLOW_ID
//   - CHATKIT_RETRY_MAX, CHATKIT_RETRY_BASE_DELAY, CHATKIT_RETRY_MAX_DELAY, CHATKIT_RETRY_JITTER
//   - CHATKIT_CONNECT_TIMEOUT, CHATKIT_HEADER_TIMEOUT, CHATKIT_BODY_TIMEOUT
//   - CHATKIT_COOKIE_DISABLED, CHATKIT_COOKIE_SECURE
//   - ASSET_DIR, ASSET_PATTERNS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
