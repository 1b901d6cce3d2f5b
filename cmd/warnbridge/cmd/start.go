package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/warnbridge/warnbridge/internal/config"
	"github.com/warnbridge/warnbridge/internal/helper"
	"github.com/warnbridge/warnbridge/internal/pkg/logger"
	"github.com/warnbridge/warnbridge/internal/plugin"
	"github.com/warnbridge/warnbridge/internal/plugin/discord"
	"github.com/warnbridge/warnbridge/internal/plugin/elastic"
	"github.com/warnbridge/warnbridge/internal/plugin/file"
	kafkaplugin "github.com/warnbridge/warnbridge/internal/plugin/kafka"
	logplugin "github.com/warnbridge/warnbridge/internal/plugin/log"
	rabbitplugin "github.com/warnbridge/warnbridge/internal/plugin/rabbitmq"
	"github.com/warnbridge/warnbridge/internal/plugin/redisnotify"
	"github.com/warnbridge/warnbridge/internal/plugin/s3"
	"github.com/warnbridge/warnbridge/internal/plugin/smtp"
	"github.com/warnbridge/warnbridge/internal/plugin/webhook"
	"github.com/warnbridge/warnbridge/internal/supervisor"
)

// ExitError carries the process exit code a failure at this phase of
// startup should produce: 1 for a configuration problem the operator
// must fix before retrying, 2 for a runtime failure (broker
// unreachable, plugin init failed) that might clear on its own.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }

func configError(err error) error  { return &ExitError{Code: 1, Err: err} }
func runtimeError(err error) error { return &ExitError{Code: 2, Err: err} }

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the bridge daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := config.Load()
		if err != nil {
			return configError(fmt.Errorf("loading runtime config: %w", err))
		}

		log := logger.New(rt.LogLevel, rt.LogFormat)

		doc, err := config.LoadRoutingDocument(rt.RoutingConfigPath)
		if err != nil {
			return configError(fmt.Errorf("loading routing document: %w", err))
		}

		helpers := helper.NewRegistry()
		RegisterBuiltinHelpers(helpers)

		factories := builtinPluginFactories()

		ctx := context.Background()
		sup, err := supervisor.New(ctx, rt, doc, helpers, factories, log)
		if err != nil {
			return runtimeError(fmt.Errorf("building supervisor: %w", err))
		}

		if err := sup.Run(ctx); err != nil {
			return runtimeError(err)
		}
		return nil
	},
}

func builtinPluginFactories() map[string]plugin.Factory {
	return map[string]plugin.Factory{
		"log":      logplugin.New,
		"file":     file.New,
		"smtp":     smtp.New,
		"webhook":  webhook.New,
		"discord":  discord.New,
		"kafka":    kafkaplugin.New,
		"rabbitmq": rabbitplugin.New,
		"redis":    redisnotify.New,
		"elastic":  elastic.New,
		"s3":       s3.New,
	}
}
