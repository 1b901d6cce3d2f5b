package cmd

import (
	"github.com/spf13/cobra"
)

const sampleRoutingDocument = `# Services a route's targets can deliver to.
services:
  - name: mylog
    kind: log
    options:
      level: info

  - name: myfile
    kind: file
    targets:
      alerts:
        path: /var/log/warnbridge/alerts.log

  - name: myslack
    kind: webhook
    options:
      timeout_seconds: 10
    targets:
      ops:
        url: https://hooks.example.com/services/T000/B000/XXXX

# Routes bind a topic pattern to a transform pipeline and a target list.
routes:
  - name: temperature-alerts
    topic: "sensors/+/temperature"
    format: "{_topic_parts[1]} is at {value} degrees"
    targets:
      - "mylog:default"
      - "myfile:alerts"
    max_retries: 3
    retry_backoff_ms: 500

# failover receives a job once its target's retry budget is exhausted.
failover:
  - "mylog:default"

# tasks are injected back into the pipeline on a fixed interval.
tasks:
  - name: heartbeat
    interval_seconds: 300
    run_immediately: true
    helper: heartbeat
    topic: "warnbridge/heartbeat"
`

var sampleConfigCmd = &cobra.Command{
	Use:   "sample-config",
	Short: "Print a sample routing document to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(sampleRoutingDocument)
	},
}

const sampleHelpersSource = `// Package helpers registers the custom filter_fn, datamap_fn,
// targets_fn and task helpers a deployment needs beyond the built-in
// ones cmd.RegisterBuiltinHelpers already provides.
package helpers

import "github.com/warnbridge/warnbridge/internal/helper"

func Register(r *helper.Registry) {
	r.RegisterFilter("my_filter", func(ctx helper.Context, topic string, payload []byte) helper.Result {
		return helper.KeepResult(nil)
	})
}
`

var sampleHelpersCmd = &cobra.Command{
	Use:   "sample-helpers",
	Short: "Print a sample custom-helpers source file to stdout",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Print(sampleHelpersSource)
	},
}
