package main

import (
	"net/url"
	"testing"
)

func TestUpstreamAddr(t *testing.T) {
	tests := map[string]string{
		"http://127.0.0.1:3000":    "127.0.0.1:3000",
		"http://backend.internal":  "backend.internal:80",
		"https://api.example.com/": "api.example.com:443",
		"http://[::1]:8081/base":   "[::1]:8081",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatal(err)
		}
		if got := upstreamAddr(u); got != want {
			t.Errorf("upstreamAddr(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNotifySystemd_NoSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")
	if err := notifySystemd(); err == nil {
		t.Fatal("expected error without NOTIFY_SOCKET")
	}
}
