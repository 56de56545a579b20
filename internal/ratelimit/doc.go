// Package ratelimit provides per-client sliding window rate limiting with
// a per-minute and a per-hour ceiling.
//
// Each client id owns an oldest-first list of admission timestamps covering
// the trailing hour. A request is admitted only while both windows are under
// their caps. State is in-memory and single-process; it is lost on restart and
// is not shared between instances. For distributed limiting use an upstream
// gateway or WAF.
package ratelimit
