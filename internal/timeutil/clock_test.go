package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClockTicker(t *testing.T) {
	var c Clock = RealClock{}
	tk := c.NewTicker(5 * time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C():
	case <-time.After(time.Second):
		t.Fatal("ticker did not fire")
	}
	assert.GreaterOrEqual(t, c.Since(c.Now().Add(-time.Second)), time.Second)
}

func TestMockClockAdvanceFiresTicker(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start)
	tk := c.NewTicker(time.Second)
	assert.Equal(t, 1, c.Tickers())

	c.Advance(500 * time.Millisecond)
	select {
	case <-tk.C():
		t.Fatal("fired before interval")
	default:
	}

	c.Advance(500 * time.Millisecond)
	select {
	case got := <-tk.C():
		assert.Equal(t, start.Add(time.Second), got)
	default:
		t.Fatal("expected tick")
	}
	assert.Equal(t, time.Second, c.Since(start))
}

func TestMockTickerStopAndReset(t *testing.T) {
	c := NewMockClock(time.Unix(0, 0))
	tk := c.NewTicker(time.Second)
	tk.Stop()
	c.Advance(2 * time.Second)
	select {
	case <-tk.C():
		t.Fatal("stopped ticker fired")
	default:
	}

	tk.Reset(time.Second)
	c.Advance(time.Second)
	select {
	case <-tk.C():
	default:
		t.Fatal("reset ticker should fire")
	}
}

func TestMockClockSet(t *testing.T) {
	c := NewMockClock(time.Time{})
	at := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	c.Set(at)
	assert.True(t, c.Now().Equal(at))
}
