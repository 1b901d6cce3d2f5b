package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

func TestPlugin_DeliverRequiresPath(t *testing.T) {
	p := New()
	sc := &plugin.ServiceContext{Options: map[string]interface{}{}, Log: logger.New("error", "text").Component("file")}
	if err := p.Init(context.Background(), sc); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	if _, err := p.Deliver(context.Background(), sc, &core.Job{Body: "x", Target: "default"}); err == nil {
		t.Fatal("expected error when path option is missing")
	}
}

func TestPlugin_DeliverAppendsToFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.log")

	p := New()
	sc := &plugin.ServiceContext{
		Options: map[string]interface{}{"path": target},
		Log:     logger.New("error", "text").Component("file"),
	}
	if err := p.Init(context.Background(), sc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer p.Close()

	ok, err := p.Deliver(context.Background(), sc, &core.Job{Body: "line one", Target: "default"})
	if err != nil || !ok {
		t.Fatalf("expected successful delivery, got ok=%v err=%v", ok, err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("failed to read target file: %v", err)
	}
	if string(data) != "line one\n" {
		t.Fatalf("unexpected file content: %q", string(data))
	}
}

func TestPlugin_DeliverUsesPerTargetPath(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a.log")
	pathB := filepath.Join(dir, "b.log")

	p := New()
	log := logger.New("error", "text").Component("file")
	if err := p.Init(context.Background(), &plugin.ServiceContext{Log: log}); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}
	defer p.Close()

	scA := &plugin.ServiceContext{Options: map[string]interface{}{"path": pathA}, Log: log}
	scB := &plugin.ServiceContext{Options: map[string]interface{}{"path": pathB}, Log: log}

	if _, err := p.Deliver(context.Background(), scA, &core.Job{Body: "to-a", Target: "a"}); err != nil {
		t.Fatalf("unexpected error delivering to a: %v", err)
	}
	if _, err := p.Deliver(context.Background(), scB, &core.Job{Body: "to-b", Target: "b"}); err != nil {
		t.Fatalf("unexpected error delivering to b: %v", err)
	}

	dataA, err := os.ReadFile(pathA)
	if err != nil {
		t.Fatalf("failed to read pathA: %v", err)
	}
	if string(dataA) != "to-a\n" {
		t.Fatalf("unexpected content in pathA: %q", string(dataA))
	}

	dataB, err := os.ReadFile(pathB)
	if err != nil {
		t.Fatalf("failed to read pathB: %v", err)
	}
	if string(dataB) != "to-b\n" {
		t.Fatalf("unexpected content in pathB: %q", string(dataB))
	}
}
