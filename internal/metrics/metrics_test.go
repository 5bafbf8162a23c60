package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Parallel()

	r := New()
	r.ObserveFetch("database", ResultOK)
	r.ObserveFetch("database", ResultOK)
	r.ObserveFetch("container", ResultError)
	r.ItemDeleted()
	r.ItemDeleted()
	r.ItemDeleted()
	r.DeleteFailed()
	r.ContainerCleared()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("database", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchTotal.WithLabelValues("container", ResultError)))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.itemsDeleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deleteFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.containersCleared))
}

func TestRecorder_Nil(t *testing.T) {
	t.Parallel()

	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveFetch("database", ResultOK)
		r.ItemDeleted()
		r.DeleteFailed()
		r.ContainerCleared()
	})
	assert.Nil(t, r.Registry())
	assert.NoError(t, r.WriteTextfile("/nonexistent/metrics.prom"))
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	r := New()
	r.ItemDeleted()

	path := filepath.Join(t.TempDir(), "cosmoclear.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cosmoclear_items_deleted_total 1")
}
