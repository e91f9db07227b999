package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func forwarded(remote, xff string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = remote
	if xff != "" {
		req.Header.Set("X-Forwarded-For", xff)
	}
	return req
}

func TestNewIPExtractor_DirectIgnoresForwardingHeaders(t *testing.T) {
	extract, err := NewIPExtractor(nil)
	if err != nil {
		t.Fatalf("NewIPExtractor: %v", err)
	}
	req := forwarded("203.0.113.7:5555", "198.51.100.1")
	req.Header.Set("X-Real-IP", "198.51.100.2")

	if got := extract(req); got != "203.0.113.7" {
		t.Fatalf("expected socket peer, got %q", got)
	}
}

func TestNewIPExtractor_TrustedProxy(t *testing.T) {
	extract, err := NewIPExtractor([]string{"10.0.0.0/8"})
	if err != nil {
		t.Fatalf("NewIPExtractor: %v", err)
	}

	if got := extract(forwarded("10.1.2.3:443", "198.51.100.9")); got != "198.51.100.9" {
		t.Fatalf("expected forwarded client behind trusted proxy, got %q", got)
	}
	if got := extract(forwarded("10.1.2.3:443", "198.51.100.9, 10.4.4.4")); got != "198.51.100.9" {
		t.Fatalf("expected first untrusted hop, got %q", got)
	}
	if got := extract(forwarded("203.0.113.7:5555", "198.51.100.9")); got != "203.0.113.7" {
		t.Fatalf("untrusted peer must not pick its own address, got %q", got)
	}
	// Private ranges are not trusted implicitly.
	if got := extract(forwarded("192.168.1.5:443", "198.51.100.9")); got != "192.168.1.5" {
		t.Fatalf("expected peer outside trusted ranges, got %q", got)
	}
}

func TestNewIPExtractor_InvalidCIDR(t *testing.T) {
	if _, err := NewIPExtractor([]string{"not-a-cidr"}); err == nil {
		t.Fatal("expected error for invalid CIDR")
	}
}
