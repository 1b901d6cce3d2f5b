package service

import (
	"context"
	"testing"

	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

type recordingPlugin struct {
	delivered []string
}

func (p *recordingPlugin) Init(ctx context.Context, sc *plugin.ServiceContext) error { return nil }

func (p *recordingPlugin) Deliver(ctx context.Context, sc *plugin.ServiceContext, job *core.Job) (bool, error) {
	p.delivered = append(p.delivered, sc.StringOption("path", ""))
	return true, nil
}

func (p *recordingPlugin) Close() error { return nil }

func TestRegistry_DispatchMergesGlobalAndTargetOptions(t *testing.T) {
	rec := &recordingPlugin{}
	reg := NewRegistry(logger.New("error", "text"), "test")

	err := reg.Load(context.Background(), []Config{
		{
			Name:    "file",
			Kind:    "file",
			Options: map[string]interface{}{"max_backups": 3},
			Targets: map[string]map[string]interface{}{
				"archive": {"path": "/var/log/archive.log"},
			},
		},
	}, map[string]plugin.Factory{
		"file": func() plugin.Plugin { return rec },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ok, err := reg.Dispatch(context.Background(), &core.Job{Service: "file", Target: "archive"})
	if err != nil || !ok {
		t.Fatalf("expected successful dispatch, got ok=%v err=%v", ok, err)
	}
	if len(rec.delivered) != 1 || rec.delivered[0] != "/var/log/archive.log" {
		t.Fatalf("expected target-specific path to reach the plugin, got %v", rec.delivered)
	}
}

func TestRegistry_DispatchUnknownServiceErrors(t *testing.T) {
	reg := NewRegistry(logger.New("error", "text"), "test")
	_, err := reg.Dispatch(context.Background(), &core.Job{Service: "missing", Target: "x"})
	if err == nil {
		t.Fatal("expected error for unknown service")
	}
}

func TestRegistry_ValidateTargetsStrictRejectsUnknown(t *testing.T) {
	reg := NewRegistry(logger.New("error", "text"), "test")
	err := reg.ValidateTargets([]string{"missing:target"}, true)
	if err == nil {
		t.Fatal("expected strict validation to reject unknown service")
	}
}

func TestRegistry_ValidateTargetsLenientSkipsUnknown(t *testing.T) {
	reg := NewRegistry(logger.New("error", "text"), "test")
	if err := reg.ValidateTargets([]string{"missing:target"}, false); err != nil {
		t.Fatalf("expected lenient validation to not error, got %v", err)
	}
}

func loadLogServiceWithDeclaredTargets(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry(logger.New("error", "text"), "test")
	err := reg.Load(context.Background(), []Config{
		{
			Name: "log",
			Kind: "log",
			Targets: map[string]map[string]interface{}{
				"info": {},
				"crit": {},
			},
		},
	}, map[string]plugin.Factory{
		"log": func() plugin.Plugin { return &recordingPlugin{} },
	})
	if err != nil {
		t.Fatalf("unexpected error loading service: %v", err)
	}
	return reg
}

func TestRegistry_ValidateTargetsStrictRejectsUnknownTargetName(t *testing.T) {
	reg := loadLogServiceWithDeclaredTargets(t)
	if err := reg.ValidateTargets([]string{"log:nonesuch"}, true); err == nil {
		t.Fatal("expected strict validation to reject a target name not declared under the service")
	}
}

func TestRegistry_ValidateTargetsAcceptsDeclaredTargetName(t *testing.T) {
	reg := loadLogServiceWithDeclaredTargets(t)
	if err := reg.ValidateTargets([]string{"log:crit"}, true); err != nil {
		t.Fatalf("expected declared target name to validate, got %v", err)
	}
}

func TestRegistry_ValidTarget(t *testing.T) {
	reg := loadLogServiceWithDeclaredTargets(t)

	if !reg.ValidTarget("log", "info") {
		t.Fatal("expected log:info to be valid")
	}
	if reg.ValidTarget("log", "nonesuch") {
		t.Fatal("expected log:nonesuch to be invalid")
	}
	if reg.ValidTarget("missing", "anything") {
		t.Fatal("expected unknown service to be invalid")
	}
}

func TestRegistry_ValidTargetAcceptsAnyNameWhenServiceDeclaresNone(t *testing.T) {
	reg := NewRegistry(logger.New("error", "text"), "test")
	err := reg.Load(context.Background(), []Config{
		{Name: "mylog", Kind: "log"},
	}, map[string]plugin.Factory{
		"log": func() plugin.Plugin { return &recordingPlugin{} },
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reg.ValidTarget("mylog", "default") {
		t.Fatal("expected any target name to be valid when the service declares no target table")
	}
}
