package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(EventsDropped.WithLabelValues(DropRateLimited))
	EventsDropped.WithLabelValues(DropRateLimited).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(EventsDropped.WithLabelValues(DropRateLimited)))

	Connections.Set(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(Connections))
	Connections.Set(0)
}

func TestMetricsLint(t *testing.T) {
	EventsReceived.WithLabelValues("joinBoard").Inc()
	EventDuration.WithLabelValues("joinBoard").Observe(0.01)

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer,
		"board_events_received_total", "board_event_duration_seconds")
	assert.NoError(t, err)
	assert.Empty(t, problems)
}
