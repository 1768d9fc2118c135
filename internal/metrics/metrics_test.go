package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccn-go/ccnd/internal/face"
)

func TestObserveFaceUpdatesGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)

	tbl := face.NewTable()
	f, err := tbl.Enroll(face.NewNullTransport(), 0)
	require.NoError(t, err)

	c.ObserveFace(f)

	metricFamilies, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "ccnd_face_in_bytes_total" {
			found = true
			require.Len(t, mf.GetMetric(), 1)
		}
	}
	assert.True(t, found, "expected ccnd_face_in_bytes_total to be registered and gathered")
}

func TestObserveTablesSetsGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollectors(reg)
	c.ObserveTables(3, 4, 5)

	mf, err := reg.Gather()
	require.NoError(t, err)
	var gotPit *dto.MetricFamily
	for _, f := range mf {
		if f.GetName() == "ccnd_pit_entries" {
			gotPit = f
		}
	}
	require.NotNil(t, gotPit)
	assert.Equal(t, float64(3), gotPit.GetMetric()[0].GetGauge().GetValue())
}
