// Package pak is an lz4 backed archive format for shader blobs and
// other startup resources. The archive itself is not compressed,
// every file is compressed individually so it can be read straight
// from its offset and decompressed on the fly. The file index sits
// at the end of the archive, after it is read once the whole archive
// is random access and safe for concurrent readers.
package pak

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
)

// package errors
var (
	ErrFileFormat = errors.New("corrupted or not a pak archive")
	ErrNotFound   = errors.New("no file with that name in the archive")
)

const (
	// MagicLength is the length of the magic at the start of a file
	MagicLength = 4

	// TailLength is the length of the index size number at the
	// very end of a file
	TailLength = 8
)

var magic = [MagicLength]byte{'O', 'C', 'P', 'K'}

// IndexEntry is info for one file in the file index
type IndexEntry struct {
	Name           string
	Offset         int64
	Size           int64
	CompressedSize int64
}

// Header is the file index of a pak file. It is gob encoded and
// written at the end of the archive, in front of the tail that
// records its size
type Header struct {
	Author      string
	DateCreated int64
	Version     int64
	Index       []IndexEntry
}

func int64ToBinary(num int64) []byte {
	bts := make([]byte, TailLength)
	binary.LittleEndian.PutUint64(bts, uint64(num))
	return bts
}

func binaryToInt64(bts []byte) int64 {
	return int64(binary.LittleEndian.Uint64(bts))
}

func gobEncode(data interface{}) ([]byte, error) {
	var encoded bytes.Buffer
	if err := gob.NewEncoder(&encoded).Encode(data); err != nil {
		return nil, err
	}
	return encoded.Bytes(), nil
}

func gobDecode(obj interface{}, bts []byte) error {
	return gob.NewDecoder(bytes.NewReader(bts)).Decode(obj)
}
