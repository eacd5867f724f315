package pak_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/exp/mmap"

	"github.com/Q4LEX/opencubes/pak"
)

var (
	testBlob1 = []byte("idunvovkjnreovmegihjbrqlkmfrjnb")
	testBlob2 = []byte("idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb")
)

func buildArchive(t *testing.T) []byte {
	t.Helper()
	builder := pak.NewBuilder(pak.Header{
		Author:      "opencubes",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err := builder.Add("base.vert.spv", testBlob1); err != nil {
		t.Fatal(err)
	}
	if err := builder.Add("base.frag.spv", testBlob2); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(buf.Len()) {
		t.Fatalf("reported %d written, buffer has %d", written, buf.Len())
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)

	ar, err := pak.Open(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.IsNil)

	contents, err := ar.ReadAll("base.vert.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(contents, qt.DeepEquals, testBlob1)

	contents, err = ar.ReadAll("base.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(contents, qt.DeepEquals, testBlob2)
}

func TestOpenReader(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)

	ar, err := pak.Open(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.IsNil)

	f, err := ar.Open("base.vert.spv")
	c.Assert(err, qt.IsNil)

	result := make([]byte, len(testBlob1))
	n, err := io.ReadFull(f, result)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, len(testBlob1))
	c.Assert(result, qt.DeepEquals, testBlob1)
}

func TestOpenMissingFile(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)

	ar, err := pak.Open(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.IsNil)

	_, err = ar.Open("nonexistent")
	c.Assert(err, qt.Equals, pak.ErrNotFound)
}

func TestOpenRejectsWrongMagic(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)
	copy(data, []byte("NOPE"))

	_, err := pak.Open(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.Equals, pak.ErrFileFormat)
}

func TestOpenRejectsTruncated(t *testing.T) {
	c := qt.New(t)

	_, err := pak.Open(bytes.NewReader([]byte("OCPK")), 4)
	c.Assert(err, qt.Equals, pak.ErrFileFormat)
}

func TestOpenMmap(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)

	path := filepath.Join(t.TempDir(), "test.pak")
	c.Assert(os.WriteFile(path, data, 0644), qt.IsNil)

	r, err := mmap.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := pak.Open(r, int64(r.Len()))
	c.Assert(err, qt.IsNil)

	contents, err := ar.ReadAll("base.frag.spv")
	c.Assert(err, qt.IsNil)
	c.Assert(contents, qt.DeepEquals, testBlob2)
}

func TestHeaderMetadataSurvives(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t)

	ar, err := pak.Open(bytes.NewReader(data), int64(len(data)))
	c.Assert(err, qt.IsNil)

	header := ar.Header()
	c.Assert(header.Author, qt.Equals, "opencubes")
	c.Assert(header.Version, qt.Equals, int64(1))
	c.Assert(header.Index, qt.HasLen, 2)
}
