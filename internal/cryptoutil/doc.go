// Package cryptoutil holds small hashing helpers used to fingerprint client
// credentials so raw secrets never reach limiter state, logs, or metrics.
package cryptoutil
