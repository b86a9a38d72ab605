package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer(t *testing.T) {
	t.Run("disarmed until reset", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		defer d.Stop()

		assert.False(t, d.Pending())
		select {
		case <-d.C():
			t.Fatal("debouncer fired without a reset")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("fires after reset", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		defer d.Stop()

		d.Reset()
		assert.True(t, d.Pending())
		select {
		case <-d.C():
			d.Fired()
		case <-time.After(200 * time.Millisecond):
			t.Fatal("debouncer did not fire")
		}
		assert.False(t, d.Pending())
	})

	t.Run("bursts coalesce", func(t *testing.T) {
		d := NewDebouncer(50 * time.Millisecond)
		defer d.Stop()

		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(10 * time.Millisecond)
			defer ticker.Stop()
			for i := 0; i < 5; i++ {
				<-ticker.C
				d.Reset()
			}
			close(done)
		}()

		select {
		case <-d.C():
			t.Fatal("debouncer fired during burst")
		case <-done:
		}

		select {
		case <-d.C():
		case <-time.After(300 * time.Millisecond):
			t.Fatal("debouncer did not fire after burst")
		}

		select {
		case <-d.C():
			t.Fatal("burst produced more than one tick")
		case <-time.After(100 * time.Millisecond):
		}
	})

	t.Run("cancel disarms", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		defer d.Stop()

		d.Reset()
		d.Cancel()
		assert.False(t, d.Pending())
		select {
		case <-d.C():
			t.Fatal("debouncer fired after cancel")
		case <-time.After(60 * time.Millisecond):
		}
	})

	t.Run("reset after stop is no-op", func(t *testing.T) {
		d := NewDebouncer(20 * time.Millisecond)
		d.Stop()
		d.Stop()
		d.Reset()

		select {
		case <-d.C():
			t.Fatal("debouncer fired after stop")
		case <-time.After(60 * time.Millisecond):
		}
	})
}
