package mongo

import (
	"testing"
	"time"
)

func TestConfigClientOptions(t *testing.T) {
	opts := Config{URI: "mongodb://localhost:27017", MaxPoolSize: 7}.clientOptions()

	if opts.AppName == nil || *opts.AppName != appName {
		t.Fatalf("expected app name %q", appName)
	}
	if opts.MaxPoolSize == nil || *opts.MaxPoolSize != 7 {
		t.Fatalf("expected max pool size 7")
	}
	if opts.ConnectTimeout == nil || *opts.ConnectTimeout != defaultTimeout {
		t.Fatalf("expected default connect timeout")
	}
}

func TestConfigTimeout(t *testing.T) {
	if got := (Config{Timeout: 3 * time.Second}).timeout(); got != 3*time.Second {
		t.Fatalf("expected 3s, got %v", got)
	}
	if got := (Config{}).timeout(); got != defaultTimeout {
		t.Fatalf("expected default, got %v", got)
	}
}
