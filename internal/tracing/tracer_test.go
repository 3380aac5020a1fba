package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestDisabledProviderIsNoop(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	// Spans from a disabled provider are inert but safe to use.
	_, span := p.Tracer().Start(context.Background(), "noop")
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
}

func TestFileExporterRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	require.Error(t, err)
}

func TestUnsupportedExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "kafka"})
	require.Error(t, err)
}

func TestFileExporterWritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")

	p, err := NewProvider(Config{
		Enabled:    true,
		Exporter:   "file",
		FilePath:   path,
		SampleRate: 1.0,
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	ctx, span := p.Tracer().Start(context.Background(), "box.create_object")
	span.SetAttributes(attribute.String("class", "Crate"))
	_, child := p.Tracer().Start(ctx, "stream.load_blocking")
	child.End()
	span.End()

	// Shutdown flushes the batch processor.
	require.NoError(t, p.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	byName := map[string]SpanRecord{}
	for _, rec := range records {
		byName[rec.Name] = rec
	}

	parent, ok := byName["box.create_object"]
	require.True(t, ok)
	require.Equal(t, "Crate", parent.Attributes["class"])
	require.Equal(t, "INTERNAL", parent.Kind)
	require.NotEmpty(t, parent.TraceID)
	require.NotEmpty(t, parent.SpanID)

	child2, ok := byName["stream.load_blocking"]
	require.True(t, ok)
	require.Equal(t, parent.SpanID, child2.ParentSpanID)
	require.Equal(t, parent.TraceID, child2.TraceID)
}

func TestFileExporterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{\"existing\":true}\n"), 0o600))

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	require.NoError(t, exp.ExportSpans(context.Background(), nil))
	require.NoError(t, exp.Shutdown(context.Background()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "existing")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.False(t, cfg.Enabled)
	require.Equal(t, "file", cfg.Exporter)
	require.Equal(t, 1.0, cfg.SampleRate)
	require.Equal(t, "cachebox", cfg.ServiceName)
}
