// Package gatehttp serves the public /api surface: a quota status endpoint
// and a rate limited reverse proxy to the protected upstream service.
package gatehttp
