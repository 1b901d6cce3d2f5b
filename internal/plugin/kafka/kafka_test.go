package kafka

import (
	"context"
	"testing"

	"github.com/warnbridge/warnbridge/internal/plugin"
)

func TestPlugin_InitRequiresBrokers(t *testing.T) {
	p := New()
	sc := &plugin.ServiceContext{Options: map[string]interface{}{}}
	if err := p.Init(context.Background(), sc); err == nil {
		t.Fatal("expected error when brokers option is missing")
	}
}
