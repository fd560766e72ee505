package alert

import (
	"io"
	"sync"
)

// BellSounder rings the terminal bell on the given writer, usually the
// operator console.
type BellSounder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewBellSounder creates a sounder writing BEL to w.
func NewBellSounder(w io.Writer) *BellSounder {
	return &BellSounder{w: w}
}

// Sound implements Sounder.
func (b *BellSounder) Sound() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.w.Write([]byte{'\a'})
	return err
}
