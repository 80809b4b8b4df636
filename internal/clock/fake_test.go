package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowAdvances(t *testing.T) {
	c := Fake(epoch)
	assert.Equal(t, epoch, c.Now())
	c.Advance(2 * time.Second)
	assert.Equal(t, epoch.Add(2*time.Second), c.Now())
}

func TestFake_TickerFiresOnDeadline(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(33 * time.Millisecond)
	defer tk.Stop()

	c.Advance(32 * time.Millisecond)
	select {
	case <-tk.C:
		t.Fatal("ticker fired early")
	default:
	}

	c.Advance(time.Millisecond)
	select {
	case at := <-tk.C:
		assert.Equal(t, epoch.Add(33*time.Millisecond), at)
	default:
		t.Fatal("ticker did not fire")
	}
}

func TestFake_TickerDropsWhenFull(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(10 * time.Millisecond)
	defer tk.Stop()

	c.Advance(100 * time.Millisecond)
	<-tk.C
	select {
	case <-tk.C:
		t.Fatal("expected a single buffered tick")
	default:
	}
}

func TestFake_StopAndWait(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})
	go func() {
		c.WaitForTickers(1)
		close(done)
	}()

	tk := c.NewTicker(time.Second)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForTickers did not return")
	}
	require.Equal(t, 1, c.ActiveTickers())

	tk.Stop()
	assert.Equal(t, 0, c.ActiveTickers())
	c.Advance(5 * time.Second)
	select {
	case <-tk.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestReal_Ticker(t *testing.T) {
	tk := Real().NewTicker(time.Millisecond)
	defer tk.Stop()
	select {
	case <-tk.C:
	case <-time.After(time.Second):
		t.Fatal("real ticker did not fire")
	}
}
