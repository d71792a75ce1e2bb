package channels_test

import (
	"testing"
	"time"

	"github.com/alkime/liftlog/pkg/channels"
	"github.com/stretchr/testify/assert"
)

func TestSendFunctions(t *testing.T) {
	t.Run("send non-blocking", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			ch := make(chan int, 2)
			assert.NoError(t, channels.SendNonBlock(ch, 42))
			assert.Equal(t, 42, <-ch)
		})

		t.Run("full", func(t *testing.T) {
			ch := make(chan int, 1)
			ch <- 1
			assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelFull)
		})

		t.Run("unbuffered with no receiver", func(t *testing.T) {
			ch := make(chan int)
			assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelFull)
		})

		t.Run("closed", func(t *testing.T) {
			ch := make(chan int, 2)
			ch <- 1
			close(ch)
			assert.ErrorIs(t, channels.SendNonBlock(ch, 42), channels.ErrChannelClosed)
			assert.Equal(t, 1, <-ch)
		})
	})

	t.Run("send with timeout", func(t *testing.T) {
		t.Run("success", func(t *testing.T) {
			ch := make(chan int, 1)
			assert.NoError(t, channels.SendWithTimeout(ch, 7, 10*time.Millisecond))
		})

		t.Run("times out", func(t *testing.T) {
			ch := make(chan int)
			assert.ErrorIs(t, channels.SendWithTimeout(ch, 7, 5*time.Millisecond), channels.ErrChannelTimeout)
		})

		t.Run("closed", func(t *testing.T) {
			ch := make(chan int)
			close(ch)
			assert.ErrorIs(t, channels.SendWithTimeout(ch, 7, 5*time.Millisecond), channels.ErrChannelClosed)
		})
	})
}

func TestReceiveAll(t *testing.T) {
	t.Run("stops at close", func(t *testing.T) {
		ch := make(chan int, 3)
		ch <- 1
		ch <- 2
		close(ch)
		assert.Equal(t, []int{1, 2}, channels.ReceiveAll(ch, time.Second, 0))
	})

	t.Run("stops when idle", func(t *testing.T) {
		ch := make(chan int, 3)
		ch <- 1
		assert.Equal(t, []int{1}, channels.ReceiveAll(ch, 5*time.Millisecond, 0))
	})

	t.Run("stops at max", func(t *testing.T) {
		ch := make(chan int, 3)
		ch <- 1
		ch <- 2
		ch <- 3
		assert.Equal(t, []int{1, 2}, channels.ReceiveAll(ch, time.Second, 2))
	})
}
