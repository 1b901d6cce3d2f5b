package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

func TestPlugin_DeliverRequiresURLOption(t *testing.T) {
	p := New()
	sc := &plugin.ServiceContext{Options: map[string]interface{}{}, Log: logger.New("error", "text").Component("webhook")}
	if err := p.Init(context.Background(), sc); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	_, err := p.Deliver(context.Background(), sc, &core.Job{Target: "default"})
	if err == nil {
		t.Fatal("expected error when url option is missing")
	}
}

func TestPlugin_DeliverPostsBody(t *testing.T) {
	var received string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		received = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := New()
	sc := &plugin.ServiceContext{
		Options: map[string]interface{}{"url": srv.URL, "retry": false},
		Log:     logger.New("error", "text").Component("webhook"),
	}
	if err := p.Init(context.Background(), sc); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	ok, err := p.Deliver(context.Background(), sc, &core.Job{Body: "payload", Target: "default"})
	if err != nil || !ok {
		t.Fatalf("expected successful delivery, got ok=%v err=%v", ok, err)
	}
	if received != "payload" {
		t.Fatalf("unexpected request body: %q", received)
	}
}

func TestPlugin_DeliverReportsNon2xxAsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := New()
	sc := &plugin.ServiceContext{
		Options: map[string]interface{}{"url": srv.URL, "retry": false},
		Log:     logger.New("error", "text").Component("webhook"),
	}
	if err := p.Init(context.Background(), sc); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	ok, err := p.Deliver(context.Background(), sc, &core.Job{Body: "payload", Target: "default"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected 5xx response to be reported as a retryable failure")
	}
}
