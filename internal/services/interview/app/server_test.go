package server

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"
)

func TestServerServesAndShutsDown(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	server, err := New(Config{
		HTTPAddr:            "127.0.0.1:0",
		SessionDBPath:       filepath.Join(dir, "interview.db"),
		NotificationsDBPath: filepath.Join(dir, "notifications.db"),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ctx)
	}()

	resp, err := http.Get("http://" + server.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve returned: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
