package otp

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInputAdvancesFocus(t *testing.T) {
	b := NewBuffer()
	for _, r := range "123" {
		b.Input(r)
	}
	assert.Equal(t, 3, b.Focus)
	assert.Equal(t, "123", b.Code())
	assert.False(t, b.Complete())
}

func TestInputIgnoresNonDigits(t *testing.T) {
	b := NewBuffer()
	b.Input('x')
	b.Input(' ')
	b.Input('٣') // Arabic-Indic three is not an ASCII digit
	assert.Equal(t, 0, b.Filled())
	assert.Equal(t, 0, b.Focus)
}

func TestInputSkipsToNextEmptySlot(t *testing.T) {
	b := NewBuffer()
	b.Paste("12a456")
	b.SetFocus(1)
	b.Input('9')
	// slot 2 is the next empty slot after 1
	assert.Equal(t, 2, b.Focus)

	b.Input('3')
	assert.True(t, b.Complete())
	// no empty slot left: focus stays put
	assert.Equal(t, 2, b.Focus)
	assert.Equal(t, "193456", b.Code())
}

func TestBackspace(t *testing.T) {
	b := NewBuffer()
	b.Input('1')
	b.Input('2')
	require.Equal(t, 2, b.Focus)

	// focused slot is empty: step back and clear
	b.Backspace()
	assert.Equal(t, 1, b.Focus)
	assert.Equal(t, "1", b.Code())

	// focused slot is now empty too: step back again
	b.Backspace()
	assert.Equal(t, 0, b.Focus)
	assert.Equal(t, "", b.Code())

	// nothing before slot 0
	b.Backspace()
	assert.Equal(t, 0, b.Focus)
}

func TestBackspaceClearsFilledFocusedSlot(t *testing.T) {
	b := NewBuffer()
	b.Paste("123456")
	b.SetFocus(3)
	b.Backspace()
	assert.Equal(t, 3, b.Focus)
	assert.Equal(t, "12356", b.Code())
	assert.Equal(t, "", b.Slots[3])
}

func TestPaste(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [Length]string
		focus int
	}{
		{"all digits", "123456", [Length]string{"1", "2", "3", "4", "5", "6"}, Length - 1},
		{"non-digit skipped", "12a456", [Length]string{"1", "2", "", "4", "5", "6"}, 2},
		{"longer than six", "12345678", [Length]string{"1", "2", "3", "4", "5", "6"}, Length - 1},
		{"short", "98", [Length]string{"9", "8", "", "", "", ""}, 2},
		{"nothing numeric", "abc", [Length]string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer()
			b.Paste(tt.input)
			if diff := cmp.Diff(tt.want, b.Slots); diff != "" {
				t.Errorf("slots mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, tt.focus, b.Focus)
		})
	}
}

func TestPasteKeepsExistingValuesAtSkippedPositions(t *testing.T) {
	b := NewBuffer()
	b.Paste("000000")
	b.Paste("1-2")
	assert.Equal(t, "102000", b.Code())
}

func TestNumber(t *testing.T) {
	b := NewBuffer()
	b.Paste("01234")
	_, ok := b.Number()
	assert.False(t, ok)

	b.Input('5')
	n, ok := b.Number()
	require.True(t, ok)
	assert.Equal(t, 12345, n)
}

func TestFocusClamp(t *testing.T) {
	b := NewBuffer()
	b.MoveLeft()
	assert.Equal(t, 0, b.Focus)
	b.SetFocus(10)
	assert.Equal(t, Length-1, b.Focus)
	b.MoveRight()
	assert.Equal(t, Length-1, b.Focus)
}

func TestReset(t *testing.T) {
	b := NewBuffer()
	b.Paste("123456")
	b.Reset()
	assert.Equal(t, NewBuffer(), b)
}

func TestCooldown(t *testing.T) {
	var c Cooldown
	assert.False(t, c.Active())

	require.NoError(t, c.Start(DefaultCooldown))
	assert.Equal(t, 30, c.Remaining())
	assert.ErrorIs(t, c.Start(DefaultCooldown), ErrCooldownActive)

	ticks := 0
	for c.Tick() {
		ticks++
	}
	// 29 ticks keep it running, the 30th re-enables resend
	assert.Equal(t, 29, ticks)
	assert.False(t, c.Active())
	assert.Equal(t, 0, c.Remaining())

	require.NoError(t, c.Start(1500*time.Millisecond))
	assert.Equal(t, 2, c.Remaining())
	c.Stop()
	assert.False(t, c.Active())
}
