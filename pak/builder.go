package pak

import (
	"bytes"
	"io"
	"sync"

	"github.com/pierrec/lz4"
)

// NewBuilder creates a new Builder. Do not fill the Index in
// the header, it will be overwritten anyway
func NewBuilder(header Header) *Builder {
	header.Index = nil
	return &Builder{
		header: header,
	}
}

type pendingFile struct {
	name       string
	size       int64
	compressed []byte
}

// Builder assembles a pak archive. Archives are versioned and cannot
// be appended to. Whenever Add is called the data is compressed right
// away, WriteTo then bundles everything with the index at the tail
type Builder struct {
	io.WriterTo

	header Header

	mutex sync.Mutex
	files []pendingFile
}

// Add appends data to the builder with a given name.
// Will block until lz4 finishes compression. Is safe
// to use concurrently in different goroutines
func (b *Builder) Add(name string, data []byte) error {
	var compressed bytes.Buffer
	writer := lz4.NewWriter(&compressed)
	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.files = append(b.files, pendingFile{
		name:       name,
		size:       int64(len(data)),
		compressed: compressed.Bytes(),
	})
	return nil
}

// WriteTo bundles and writes all of the files added to the Builder
// into a pak archive that is ready to use
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	var written int64

	num, err := w.Write(magic[:])
	if err != nil {
		return written, err
	}
	written += int64(num)

	header := b.header
	header.Index = nil
	offset := int64(MagicLength)
	for _, f := range b.files {
		header.Index = append(header.Index, IndexEntry{
			Name:           f.name,
			Offset:         offset,
			Size:           f.size,
			CompressedSize: int64(len(f.compressed)),
		})
		num, err := w.Write(f.compressed)
		if err != nil {
			return written, err
		}
		written += int64(num)
		offset += int64(num)
	}

	rawHeader, err := gobEncode(header)
	if err != nil {
		return written, err
	}
	num, err = w.Write(rawHeader)
	if err != nil {
		return written, err
	}
	written += int64(num)

	num, err = w.Write(int64ToBinary(int64(len(rawHeader))))
	if err != nil {
		return written, err
	}
	written += int64(num)

	b.files = b.files[:0]
	return written, nil
}
