package embedded

// Reader reads bytes.
type Reader interface {
	// Read fills p and reports how many bytes it wrote.
	Read(p []byte) (int, error)
}

// Closer releases resources.
type Closer interface {
	// Close releases the underlying resource.
	Close() error
}

// ReadCloser groups Read and Close.
type ReadCloser interface {
	Reader
	Closer
}

// File is an in-memory ReadCloser.
type File struct {
	data []byte
}

func (f *File) Read(p []byte) (int, error) {
	n := copy(p, f.data)
	f.data = f.data[n:]
	return n, nil
}

// Close drops the buffered data.
func (f *File) Close() error {
	f.data = nil
	return nil
}
