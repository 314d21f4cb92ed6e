package tor

import (
	"errors"
	"testing"
	"time"
)

func TestEmbeddedTorBeforeStart(t *testing.T) {
	t.Parallel()

	e := NewEmbeddedTor(WithStartupTimeout(time.Minute), WithStartupTimeout(-1))
	if e.startupTimeout != time.Minute {
		t.Errorf("expected startup timeout 1m, got %v", e.startupTimeout)
	}
	if e.IsRunning() {
		t.Error("expected daemon not to be running")
	}
	if e.SocksAddr() != "" {
		t.Errorf("expected empty SOCKS address, got %q", e.SocksAddr())
	}
	if err := e.Stop(); err != nil {
		t.Errorf("expected Stop on an unstarted daemon to succeed, got %v", err)
	}
	if _, err := e.NewClient(time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got %v", err)
	}
}

func TestNewEmbeddedTorDefaults(t *testing.T) {
	t.Parallel()

	if got := NewEmbeddedTor().startupTimeout; got != DefaultStartupTimeout {
		t.Errorf("expected %v, got %v", DefaultStartupTimeout, got)
	}
}
