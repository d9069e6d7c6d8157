package http_server

import (
	"io"
	"net/http"
	"testing"
	"time"
)

func TestServeAndShutdown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})

	s, err := New(handler, "127.0.0.1:0", ShutdownTimeout(time.Second))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	resp, err := http.Get("http://" + s.Addr() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Errorf("body = %q", body)
	}

	if err := s.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if err, ok := <-s.Notify(); ok {
		t.Errorf("graceful shutdown reported %v", err)
	}
}

func TestBindError(t *testing.T) {
	first, err := New(http.NotFoundHandler(), "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer first.Shutdown()

	if _, err := New(http.NotFoundHandler(), first.Addr()); err == nil {
		t.Error("second listener on the same address should fail")
	}
}
