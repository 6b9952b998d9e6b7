package toolrun

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultChunkSize is the read size ReaderSource uses when size <= 0.
const DefaultChunkSize = 4096

// ChunkSource supplies the next chunk of a response stream. It returns io.EOF
// (possibly together with a final chunk) at end of stream. Any other error aborts
// the stream. The returned slice is only read until the next call.
type ChunkSource func() ([]byte, error)

// ReaderSource adapts an io.Reader (e.g. an HTTP response body) to a ChunkSource
// reading at most size bytes per chunk.
func ReaderSource(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	buf := make([]byte, size)
	return func() ([]byte, error) {
		n, err := r.Read(buf)
		return buf[:n], err
	}
}

// ProcessStream reads src until end of stream, cuts complete JSON documents out of
// the accumulated bytes and executes the tool calls of each document as one batch.
// Every Result is passed to sink, on the calling goroutine, as soon as its batch is
// done; the next chunk is requested only after that. Fragments that are not valid
// JSON are skipped. The returned error is a non-EOF error from src or ctx.Err().
func (r *Registry) ProcessStream(ctx context.Context, src ChunkSource, sink func(Result), mode ExecMode) error {
	if sink == nil {
		sink = func(Result) {}
	}
	var sp Splitter
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk, err := src()
		if len(chunk) > 0 {
			_, _ = sp.Write(chunk)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("read stream chunk: %w", err)
		}
		r.drain(ctx, &sp, sink, mode)
	}
	// A value completed by the last chunk has not been extracted yet.
	r.drain(ctx, &sp, sink, mode)
	return nil
}

func (r *Registry) drain(ctx context.Context, sp *Splitter, sink func(Result), mode ExecMode) {
	for _, doc := range sp.Extract() {
		calls, err := extractDocument(doc, r.opts.logger)
		if err != nil {
			r.opts.logger.DebugContext(ctx, "skipping malformed stream fragment", "bytes", len(doc))
			continue
		}
		for _, res := range r.ExecuteBatch(ctx, calls, mode) {
			sink(res)
		}
	}
}
