package prom

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	h, err := New(reg, "entitycache")
	require.NoError(t, err)

	h.Hit("definitions")
	h.Hit("definitions")
	h.Miss("instances")
	h.DuplicateKey("instances", "k")
	h.StaleWriteDropped("definitions", "k")
	h.GroupReplaced("g", 3, 2)
	h.GroupEvicted("g", 5)
	h.GenStoreError("bump", errors.New("x"))

	assert.Equal(t, 2.0, testutil.ToFloat64(h.lookups.WithLabelValues("definitions", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.lookups.WithLabelValues("instances", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.duplicateKeys.WithLabelValues("instances")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.staleDropped.WithLabelValues("definitions")))
	assert.Equal(t, 2.0, testutil.ToFloat64(h.groupDropped))
	assert.Equal(t, 5.0, testutil.ToFloat64(h.evictedItems))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.genErrors.WithLabelValues("bump")))

	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, "x")
	require.NoError(t, err)
	_, err = New(reg, "x")
	assert.Error(t, err)
}
