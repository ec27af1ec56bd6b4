package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_VersionInfo(t *testing.T) {
	reg := NewRegistry("abc123")

	expected := `
# HELP gymrpg_version_info Running gymrpg version, always 1.
# TYPE gymrpg_version_info gauge
gymrpg_version_info{version="abc123"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gymrpg_version_info"))

	count, err := testutil.GatherAndCount(NewRegistry(""), "gymrpg_version_info")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewManager_SyncItems(t *testing.T) {
	m := NewTestManager()
	m.CounterSyncItems.WithLabelValues("workout", "synced").Add(2)
	m.CounterSyncItems.WithLabelValues("workout", "failed").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterSyncItems.WithLabelValues("workout", "synced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterSyncItems.WithLabelValues("workout", "failed")))
}
