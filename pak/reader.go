package pak

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4"
)

// Open opens a pak archive from r, which holds size bytes. It checks
// the magic and reads the whole index, after that every file is a
// seek and a decompression away
func Open(r io.ReaderAt, size int64) (*Archive, error) {
	if size < MagicLength+TailLength {
		return nil, ErrFileFormat
	}

	magicBytes := make([]byte, MagicLength)
	if _, err := r.ReadAt(magicBytes, 0); err != nil {
		return nil, err
	}
	if !bytes.Equal(magicBytes, magic[:]) {
		return nil, ErrFileFormat
	}

	tail := make([]byte, TailLength)
	if _, err := r.ReadAt(tail, size-TailLength); err != nil {
		return nil, err
	}
	headerSize := binaryToInt64(tail)
	if headerSize <= 0 || headerSize > size-MagicLength-TailLength {
		return nil, ErrFileFormat
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.ReadAt(headerBytes, size-TailLength-headerSize); err != nil {
		return nil, err
	}

	var header Header
	if err := gobDecode(&header, headerBytes); err != nil {
		return nil, ErrFileFormat
	}

	index := make(map[string]IndexEntry, len(header.Index))
	for _, entry := range header.Index {
		index[entry.Name] = entry
	}

	return &Archive{
		reader: r,
		header: header,
		index:  index,
	}, nil
}

// Archive provides concurrent io for a pak file, and can provide
// an io.Reader for each file separately to perform actions on
type Archive struct {
	reader io.ReaderAt
	header Header
	index  map[string]IndexEntry
}

// Header returns the archive metadata, index included
func (a *Archive) Header() Header {
	return a.header
}

// Open returns a Reader for a file in the Archive
func (a *Archive) Open(name string) (*Reader, error) {
	entry, ok := a.index[name]
	if !ok {
		return nil, ErrNotFound
	}
	section := io.NewSectionReader(a.reader, entry.Offset, entry.CompressedSize)
	return &Reader{
		decompressor: lz4.NewReader(section),
		remaining:    entry.Size,
	}, nil
}

// ReadAll returns the entire contents of a file with a given name
func (a *Archive) ReadAll(name string) ([]byte, error) {
	reader, err := a.Open(name)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// Reader is a reader for a single file in an Archive.
// Abstracts away the location that needs to be known
type Reader struct {
	decompressor io.Reader
	remaining    int64
}

// Read reads already decompressed data
func (r *Reader) Read(p []byte) (n int, err error) {
	if r.remaining <= 0 {
		return 0, io.EOF
	}
	if int64(len(p)) > r.remaining {
		p = p[:r.remaining]
	}
	n, err = r.decompressor.Read(p)
	r.remaining -= int64(n)
	return n, err
}
