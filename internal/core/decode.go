package core

import "encoding/json"

// decodePayload attempts a best-effort JSON decode of the raw payload
// into a flat field map. Decode failure is not fatal to the pipeline:
// an empty map is returned and the raw payload remains available via
// TransformContext.Payload.
func decodePayload(payload []byte) map[string]interface{} {
	if len(payload) == 0 {
		return map[string]interface{}{}
	}

	var asObject map[string]interface{}
	if err := json.Unmarshal(payload, &asObject); err == nil {
		return asObject
	}

	var scalar interface{}
	if err := json.Unmarshal(payload, &scalar); err == nil {
		return map[string]interface{}{"value": scalar}
	}

	return map[string]interface{}{}
}
