package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestParseMetricsLabels(t *testing.T) {
	labels, err := ParseMetricsLabels("service=tigase,env=dev")
	require.NoError(t, err)
	require.Equal(t, prometheus.Labels{"service": "tigase", "env": "dev"}, labels)
}

func TestParseMetricsLabels_Empty(t *testing.T) {
	labels, err := ParseMetricsLabels("")
	require.NoError(t, err)
	require.Nil(t, labels)
}

func TestParseMetricsLabels_Invalid(t *testing.T) {
	_, err := ParseMetricsLabels("no-equals-sign")
	require.Error(t, err)

	_, err = ParseMetricsLabels("0bad=key")
	require.Error(t, err)
}

func TestParseMetricsLabels_EnvExpansion(t *testing.T) {
	t.Setenv("TIGASE_TEST_LABEL", "expanded")
	labels, err := ParseMetricsLabels("env=${TIGASE_TEST_LABEL}")
	require.NoError(t, err)
	require.Equal(t, prometheus.Labels{"env": "expanded"}, labels)
}
