package app

// outputWriter hands every chunk written by the child to fn. Stdout and stderr share one
// instance, which makes exec copy both streams through a single pipe and goroutine.
type outputWriter struct {
	fn func([]byte)
}

func (w *outputWriter) Write(b []byte) (int, error) {
	if w.fn != nil && len(b) > 0 {
		chunk := make([]byte, len(b))
		copy(chunk, b)
		w.fn(chunk)
	}
	return len(b), nil
}
