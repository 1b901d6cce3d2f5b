package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleDoc = `
services:
  - name: log1
    kind: log
    options:
      level: info
  - name: file1
    kind: file
    options:
      rotate_max_size_mb: 10
    targets:
      alerts:
        path: /var/log/alerts.log

routes:
  - name: alerts
    topic: "sensors/+/alerts"
    format: "{name}: {_topic_parts[1]}"
    targets:
      - "log1:default"
      - "file1:alerts"
    max_retries: 2

tasks:
  - name: heartbeat
    interval_seconds: 60
    helper: heartbeat
    topic: "warnbridge/heartbeat"
`

func writeDoc(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestLoadRoutingDocument_Valid(t *testing.T) {
	path := writeDoc(t, sampleDoc)

	doc, err := LoadRoutingDocument(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(doc.Services) != 2 || len(doc.Routes) != 1 || len(doc.Tasks) != 1 {
		t.Fatalf("unexpected doc shape: %+v", doc)
	}

	routes := doc.CoreRoutes()
	if routes[0].MaxRetries != 2 {
		t.Fatalf("expected max_retries 2, got %d", routes[0].MaxRetries)
	}

	refs := doc.AllTargetRefs()
	if len(refs) != 2 {
		t.Fatalf("expected 2 target refs, got %d: %v", len(refs), refs)
	}
}

func TestLoadRoutingDocument_MissingFormatAndFormatFn(t *testing.T) {
	path := writeDoc(t, `
services:
  - name: log1
    kind: log
routes:
  - name: bad
    topic: "x/y"
    targets: ["log1:default"]
`)

	if _, err := LoadRoutingDocument(path); err == nil {
		t.Fatal("expected an error when a route sets neither format nor format_fn")
	}
}

func TestLoadRoutingDocument_AmbiguousTargetsSources(t *testing.T) {
	path := writeDoc(t, `
services:
  - name: log1
    kind: log
routes:
  - name: bad
    topic: "x/y"
    format: "{topic}"
    targets: ["log1:default"]
    targets_template: "log1:{topic}"
`)

	if _, err := LoadRoutingDocument(path); err == nil {
		t.Fatal("expected an error when a route sets more than one targets source")
	}
}

func TestLoadRoutingDocument_RejectsMissingRequiredFields(t *testing.T) {
	path := writeDoc(t, `
services:
  - kind: log
routes: []
`)

	if _, err := LoadRoutingDocument(path); err == nil {
		t.Fatal("expected validation error for a service with no name")
	}
}
