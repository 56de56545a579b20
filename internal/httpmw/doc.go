// Package httpmw provides HTTP middleware for the public gate server.
//
// httpserver composes them outermost first: security headers, recover,
// request ID, client IP, otelhttp, trace response headers, metrics,
// logger injection, access log, then the chi router. Rate limiting sits
// on the /api route group, after the client IP is known.
//
// Query strings, user agents and API keys are never logged.
package httpmw
