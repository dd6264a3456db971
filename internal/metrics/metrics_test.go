package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := Register(registry)

	m.LabelsParsed.Add(5)
	m.MalformedTraces.Inc()
	m.ObjectsLoaded.Set(2)

	families, err := registry.Gather()
	require.NoError(t, err)
	require.Len(t, families, 7)

	for _, f := range families {
		switch {
		case strings.HasSuffix(f.GetName(), labelsParsedMetricName):
			assert.Equal(t, 5.0, f.Metric[0].GetCounter().GetValue())
		case strings.HasSuffix(f.GetName(), malformedTracesMetricName):
			assert.Equal(t, 1.0, f.Metric[0].GetCounter().GetValue())
		case strings.HasSuffix(f.GetName(), objectsLoadedMetricName):
			assert.Equal(t, 2.0, f.Metric[0].GetGauge().GetValue())
		}
	}
}

func TestWriteToTextfile(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := Register(registry)
	m.Recomputes.Inc()

	path := filepath.Join(t.TempDir(), "jumbotrace.prom")
	require.NoError(t, WriteToTextfile(path, registry))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "jumbotrace_recompute_total 1")

	assert.NoError(t, WriteToTextfile("", registry))
}
