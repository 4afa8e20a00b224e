package multicall

import "fmt"

// Batch groups calls for owners that each contribute exactly stride slots,
// so results can be mapped back by position.
type Batch struct {
	stride int
	calls  []Call
}

// NewBatch creates a batch with the given slots per owner.
func NewBatch(stride int) *Batch {
	if stride <= 0 {
		stride = 1
	}
	return &Batch{stride: stride}
}

// Add appends one owner's calls and returns its owner index.
func (b *Batch) Add(calls ...Call) (int, error) {
	if len(calls) != b.stride {
		return 0, fmt.Errorf("batch add: %d calls for stride %d", len(calls), b.stride)
	}
	owner := len(b.calls) / b.stride
	b.calls = append(b.calls, calls...)
	return owner, nil
}

// Calls returns the calls in insertion order.
func (b *Batch) Calls() []Call {
	return b.calls
}

// Owners returns the number of owners added.
func (b *Batch) Owners() int {
	return len(b.calls) / b.stride
}

// Slot returns the result for an owner's field.
func (b *Batch) Slot(results [][]byte, owner, field int) ([]byte, error) {
	if field < 0 || field >= b.stride {
		return nil, fmt.Errorf("field %d out of stride %d", field, b.stride)
	}
	idx := owner*b.stride + field
	if owner < 0 || idx >= len(results) {
		return nil, fmt.Errorf("%w: slot %d of %d", ErrResultCount, idx, len(results))
	}
	return results[idx], nil
}
