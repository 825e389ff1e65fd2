package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc_Explicit(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "http://secure.local:3129", "internal.example")

	tests := []struct {
		url  string
		want string
	}{
		{"http://api.example.com/v1", "http://proxy.local:3128"},
		{"https://api.example.com/v1", "http://secure.local:3129"},
		{"https://internal.example/v1", ""},
	}

	for _, tt := range tests {
		req, err := http.NewRequest(http.MethodGet, tt.url, nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := proxy(req)
		if err != nil {
			t.Fatalf("proxy(%s) failed: %v", tt.url, err)
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("Expected no proxy for %s, got %s", tt.url, got)
			}
			continue
		}
		if got == nil || got.String() != tt.want {
			t.Errorf("Expected %s for %s, got %v", tt.want, tt.url, got)
		}
	}
}

func TestNewProxyFunc_HTTPSFallsBackToHTTPProxy(t *testing.T) {
	proxy := NewProxyFunc("http://proxy.local:3128", "", "")

	req, _ := http.NewRequest(http.MethodGet, "https://api.example.com", nil)
	got, err := proxy(req)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Host != "proxy.local:3128" {
		t.Errorf("Expected https traffic through the http proxy, got %v", got)
	}
}
