package cmd

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/warnbridge/warnbridge/internal/helper"
)

// RegisterBuiltinHelpers populates a fresh helper registry with the
// filter_fn, datamap_fn, targets_fn and task callables shipped with the
// daemon. Deployments that need custom transform logic register
// additional helpers the same way before starting the supervisor.
func RegisterBuiltinHelpers(r *helper.Registry) {
	r.RegisterFilter("reject_empty_payload", func(ctx helper.Context, topic string, payload []byte) helper.Result {
		if len(strings.TrimSpace(string(payload))) == 0 {
			return helper.DropResult()
		}
		return helper.KeepResult(nil)
	})

	r.RegisterDataMap("uppercase_topic", func(ctx helper.Context, topic string, payload []byte) helper.Result {
		return helper.KeepResult(map[string]interface{}{
			"topic_upper": strings.ToUpper(topic),
		})
	})

	r.RegisterTargets("target_per_topic_segment", func(ctx helper.Context, topic string) ([]string, error) {
		parts := strings.Split(topic, "/")
		if len(parts) == 0 {
			return nil, nil
		}
		return []string{"log:" + parts[len(parts)-1]}, nil
	})

	r.RegisterTask("heartbeat", func() ([]byte, error) {
		payload, err := json.Marshal(map[string]interface{}{
			"alive": true,
			"at":    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		return payload, nil
	})
}
