// Package otp holds the state of the one-time-code input widget and the
// resend cooldown. Both are plain values driven by the UI; neither owns a
// goroutine or a timer.
package otp

import (
	"strconv"
	"strings"
)

// Length is the number of digits in a code.
const Length = 6

// Buffer is the six-slot code entry. Each slot is empty or one ASCII digit.
// Focus is the slot that receives the next key.
type Buffer struct {
	Slots [Length]string
	Focus int
}

// NewBuffer returns an empty buffer focused on the first slot.
func NewBuffer() Buffer {
	return Buffer{}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// Input writes a digit to the focused slot and moves focus to the next
// empty slot after it. Anything that is not a digit is ignored.
func (b *Buffer) Input(r rune) {
	if !isDigit(r) {
		return
	}
	b.clampFocus()
	b.Slots[b.Focus] = string(r)
	for i := b.Focus + 1; i < Length; i++ {
		if b.Slots[i] == "" {
			b.Focus = i
			return
		}
	}
}

// Backspace clears the focused slot. On an empty slot it steps back and
// clears the previous one.
func (b *Buffer) Backspace() {
	b.clampFocus()
	if b.Slots[b.Focus] != "" {
		b.Slots[b.Focus] = ""
		return
	}
	if b.Focus > 0 {
		b.Focus--
		b.Slots[b.Focus] = ""
	}
}

// Paste spreads s over the slots by position. Rune i of s lands in slot i
// when it is a digit; other positions are skipped and keep their value.
// Only the first Length runes are considered.
func (b *Buffer) Paste(s string) {
	i := 0
	for _, r := range s {
		if i >= Length {
			break
		}
		if isDigit(r) {
			b.Slots[i] = string(r)
		}
		i++
	}
	b.Focus = b.firstEmpty()
}

// MoveLeft moves focus one slot left.
func (b *Buffer) MoveLeft() {
	b.SetFocus(b.Focus - 1)
}

// MoveRight moves focus one slot right.
func (b *Buffer) MoveRight() {
	b.SetFocus(b.Focus + 1)
}

// SetFocus focuses slot i, clamped to the valid range.
func (b *Buffer) SetFocus(i int) {
	b.Focus = i
	b.clampFocus()
}

// Filled returns how many slots hold a digit.
func (b Buffer) Filled() int {
	n := 0
	for _, s := range b.Slots {
		if s != "" {
			n++
		}
	}
	return n
}

// Complete reports whether every slot holds a digit.
func (b Buffer) Complete() bool {
	return b.Filled() == Length
}

// Code joins the slots. Empty slots contribute nothing.
func (b Buffer) Code() string {
	return strings.Join(b.Slots[:], "")
}

// Number returns the code as the integer sent on the wire.
// ok is false until the buffer is complete.
func (b Buffer) Number() (n int, ok bool) {
	if !b.Complete() {
		return 0, false
	}
	n, err := strconv.Atoi(b.Code())
	if err != nil {
		return 0, false
	}
	return n, true
}

// Reset empties every slot and focuses the first.
func (b *Buffer) Reset() {
	*b = Buffer{}
}

// firstEmpty returns the first empty slot, or the last slot when full.
func (b Buffer) firstEmpty() int {
	for i, s := range b.Slots {
		if s == "" {
			return i
		}
	}
	return Length - 1
}

func (b *Buffer) clampFocus() {
	if b.Focus < 0 {
		b.Focus = 0
	}
	if b.Focus >= Length {
		b.Focus = Length - 1
	}
}
