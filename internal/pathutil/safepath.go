// Package pathutil checks request paths before they are forwarded upstream.
package pathutil

import "strings"

// HasDotSegments reports whether any segment of the escaped path p is "."
// or "..", including percent-encoded forms such as "%2e%2E". Upstreams
// may normalize these after the gate has routed the request, so they are
// rejected rather than forwarded.
func HasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if isDotSegment(seg) {
			return true
		}
	}
	return false
}

func isDotSegment(seg string) bool {
	if len(seg) == 0 || len(seg) > 6 {
		return false
	}
	dots := 0
	for i := 0; i < len(seg); {
		switch {
		case seg[i] == '.':
			i++
		case i+2 < len(seg) && seg[i] == '%' && seg[i+1] == '2' && (seg[i+2] == 'e' || seg[i+2] == 'E'):
			i += 3
		default:
			return false
		}
		dots++
	}
	return dots <= 2
}
