// Package http provides the HTTP transport used by REST connectors such as Zuora.
//
// Structure:
//
//	client.go     - HTTP client with rate limiting and retry
//	auth.go       - Authentication strategies (Bearer, API key pair, Basic)
//	base.go       - Base endpoint embedding the client, connection probe
package http
