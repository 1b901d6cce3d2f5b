// Package core implements the topic matcher, transform pipeline and
// target expander that sit between the broker and the dispatch queues.
package core

import "time"

// Message is a single inbound MQTT publish, captured before any
// transform runs against it.
type Message struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
	Received time.Time
}

// TransformContext is the working set of values a route's pipeline
// builds up as it processes a Message: the base fields derived from
// the topic and timestamp, any fields produced by decoding the
// payload, and anything a datamap_fn helper adds on top.
type TransformContext struct {
	Topic       string
	TopicParts  []string
	Payload     []byte
	QoS         byte
	Retained    bool
	ReceivedAt  time.Time
	Location    *time.Location // zone _dt/_dthhmm render in; system local time unless configured otherwise
	Decoded     map[string]interface{}
	Data        map[string]interface{}
	Title       string
	Body        string
}

func (c *TransformContext) location() *time.Location {
	if c.Location != nil {
		return c.Location
	}
	return time.Local
}

// Value returns a context field by name, checking the well-known base
// fields (including _topic and _topic_parts[i]) first, then the
// accumulated data map, then the decoded payload map.
// Used by template placeholder resolution and by helper functions that
// need a single field instead of the whole context.
func (c *TransformContext) Value(name string) (interface{}, bool) {
	switch name {
	case "topic":
		return c.Topic, true
	case "payload":
		return string(c.Payload), true
	case "qos":
		return c.QoS, true
	case "retained":
		return c.Retained, true
	case "_dtepoch":
		return c.ReceivedAt.Unix(), true
	case "_dt":
		return c.ReceivedAt.In(c.location()).Format(time.RFC3339), true
	case "_dthhmm":
		return c.ReceivedAt.In(c.location()).Format("15:04"), true
	}

	if len(name) > len("_topic_parts[") && name[:len("_topic_parts[")] == "_topic_parts[" {
		if v, ok := c.indexedTopicPart(name); ok {
			return v, true
		}
	}
	if name == "_topic" {
		return c.Topic, true
	}

	if v, ok := c.Data[name]; ok {
		return v, true
	}
	if v, ok := c.Decoded[name]; ok {
		return v, true
	}
	return nil, false
}

func (c *TransformContext) indexedTopicPart(name string) (interface{}, bool) {
	inner := name[len("_topic_parts[") : len(name)-1]
	idx := 0
	for _, r := range inner {
		if r < '0' || r > '9' {
			return nil, false
		}
		idx = idx*10 + int(r-'0')
	}
	if idx < 0 || idx >= len(c.TopicParts) {
		return nil, false
	}
	return c.TopicParts[idx], true
}

// Merge folds a flat map of new fields into the accumulated data map,
// overwriting on key collision. Used after datamap_fn/alldata_fn runs.
func (c *TransformContext) Merge(fields map[string]interface{}) {
	if c.Data == nil {
		c.Data = make(map[string]interface{}, len(fields))
	}
	for k, v := range fields {
		c.Data[k] = v
	}
}

// Job is a single unit of dispatch work: one target, produced by
// expanding one route against one TransformContext.
type Job struct {
	ID         string
	Target     string
	Service    string
	Title      string
	Body       string
	Context    *TransformContext
	Topic      string
	Payload    []byte
	Attempt    int
	EnqueuedAt time.Time
}
