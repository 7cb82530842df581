package analyze

import (
	"bufio"
	"fmt"
	"io"
)

// Chunk is a bounded, ordered group of consecutive raw record lines handed to
// exactly one worker. Base is the global line offset of Lines[0] within the
// file body (header excluded); workers derive first-seen sequence numbers
// from it, so tie-break bookkeeping survives any chunking.
type Chunk struct {
	Index uint64
	Base  uint64
	Lines []string
}

// chunker streams the source sequentially and groups lines into fixed-size
// chunks. It never holds more than one chunk in memory and never seeks, so
// peak reader memory is O(capacity) lines regardless of file size.
type chunker struct {
	sc       *bufio.Scanner
	capacity int
	index    uint64
	emitted  uint64 // data lines handed out so far
}

// scanner buffer sizing: record lines are short, but an oversized line should
// not abort the run at the default 64K token limit.
const (
	scanBufSize = 64 * 1024
	scanBufMax  = 1024 * 1024
)

// newChunker wraps r and consumes the mandatory header line. An empty source
// (not even a header) is a malformed log and fails immediately.
func newChunker(r io.Reader, capacity int) (*chunker, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, scanBufSize), scanBufMax)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("%w: missing header line", ErrMalformedInput)
	}
	return &chunker{sc: sc, capacity: capacity}, nil
}

// next returns the next chunk of up to capacity lines. The final chunk may be
// partial; ok is false once the source is exhausted. A read error from the
// underlying source is returned as-is and ends the stream.
func (c *chunker) next() (chunk Chunk, ok bool, err error) {
	lines := make([]string, 0, c.capacity)
	for len(lines) < c.capacity && c.sc.Scan() {
		lines = append(lines, c.sc.Text())
	}
	if err := c.sc.Err(); err != nil {
		return Chunk{}, false, err
	}
	if len(lines) == 0 {
		return Chunk{}, false, nil
	}
	chunk = Chunk{Index: c.index, Base: c.emitted, Lines: lines}
	c.index++
	c.emitted += uint64(len(lines))
	return chunk, true, nil
}

// lines reports the number of data lines emitted so far.
func (c *chunker) lines() uint64 { return c.emitted }
