package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWagerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWager(reg)

	m.BetPlaced(100)
	m.BetPlaced(50)
	m.BetRejected("still_alive")
	m.Outcome("win", 400)
	m.Outcome("loss", 0)
	m.RoundSettled("second_team", 2*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.betsPlaced))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.amountStaked))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rejections.WithLabelValues("still_alive")))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.amountCredited))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.settlements.WithLabelValues("second_team")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.settleDuration))
}

func TestNilWagerIsSafe(t *testing.T) {
	var m *Wager
	assert.NotPanics(t, func() {
		m.BetPlaced(1)
		m.BetRejected("x")
		m.Outcome("win", 1)
		m.RoundSettled("none", time.Second)
	})
}
