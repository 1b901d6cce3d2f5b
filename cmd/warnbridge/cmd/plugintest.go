package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warnbridge/warnbridge/internal/config"
	"github.com/warnbridge/warnbridge/internal/core"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
)

var (
	pluginTestTarget  string
	pluginTestBody    string
	pluginTestTopic   string
)

var pluginTestCmd = &cobra.Command{
	Use:   "plugin-test",
	Short: "Deliver one ad-hoc job to a configured service:target, for interactive testing",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pluginTestTarget == "" {
			return configError(fmt.Errorf("plugin-test: --target is required, e.g. mylog:default"))
		}

		rt, err := config.Load()
		if err != nil {
			return configError(fmt.Errorf("loading runtime config: %w", err))
		}
		doc, err := config.LoadRoutingDocument(rt.RoutingConfigPath)
		if err != nil {
			return configError(fmt.Errorf("loading routing document: %w", err))
		}

		log := logger.New(rt.LogLevel, rt.LogFormat)
		factories := builtinPluginFactories()

		svc, target, ok := splitServiceTarget(pluginTestTarget)
		if !ok {
			return configError(fmt.Errorf("plugin-test: %q is not a service:target reference", pluginTestTarget))
		}

		var cfg *config.ServiceDoc
		for i := range doc.Services {
			if doc.Services[i].Name == svc {
				cfg = &doc.Services[i]
				break
			}
		}
		if cfg == nil {
			return configError(fmt.Errorf("plugin-test: no configured service named %q", svc))
		}

		factory, ok := factories[cfg.Kind]
		if !ok {
			return configError(fmt.Errorf("plugin-test: unknown service kind %q", cfg.Kind))
		}

		p := factory()
		sc := &plugin.ServiceContext{
			ServiceName:   svc,
			Options:       mergeTestOptions(cfg.Options, cfg.Targets[target]),
			EngineVersion: version,
			Log:           log.Component(svc),
		}

		ctx := context.Background()
		if err := p.Init(ctx, sc); err != nil {
			return runtimeError(fmt.Errorf("plugin-test: init: %w", err))
		}
		defer p.Close()

		job := &core.Job{
			Target:  target,
			Service: svc,
			Title:   "plugin-test",
			Body:    pluginTestBody,
			Topic:   pluginTestTopic,
		}

		ok2, err := p.Deliver(ctx, sc, job)
		if err != nil {
			return runtimeError(fmt.Errorf("plugin-test: deliver: %w", err))
		}
		cmd.Printf("delivered=%v\n", ok2)
		return nil
	},
}

func init() {
	pluginTestCmd.Flags().StringVar(&pluginTestTarget, "target", "", "service:target reference to deliver to")
	pluginTestCmd.Flags().StringVar(&pluginTestBody, "body", "test message from plugin-test", "message body to deliver")
	pluginTestCmd.Flags().StringVar(&pluginTestTopic, "topic", "warnbridge/plugin-test", "topic recorded on the synthetic job")
}

func splitServiceTarget(ref string) (service, target string, ok bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:], true
		}
	}
	return "", "", false
}

func mergeTestOptions(global, target map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(global)+len(target))
	for k, v := range global {
		merged[k] = v
	}
	for k, v := range target {
		merged[k] = v
	}
	return merged
}
