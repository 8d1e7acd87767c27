package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
	gzip "github.com/klauspost/pgzip"
)

// Reader streams Records back out of a file written by Archiver.
type Reader struct {
	file *os.File
	gr   *gzip.Reader
	br   *bufio.Reader
}

// OpenReader opens path for sequential Record reads.
func OpenReader(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}
	gr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: open gzip reader: %w", err)
	}
	return &Reader{file: f, gr: gr, br: bufio.NewReader(gr)}, nil
}

// Next decodes the next Record, returning io.EOF once the stream is
// exhausted.
func (r *Reader) Next() (*Record, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r.br, lenPrefix[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, err
	}

	data := make([]byte, binary.BigEndian.Uint32(lenPrefix[:]))
	if _, err := io.ReadFull(r.br, data); err != nil {
		return nil, fmt.Errorf("archive: read record body: %w", err)
	}

	var rec Record
	if err := cbor.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("archive: unmarshal record: %w", err)
	}
	return &rec, nil
}

// Close closes the gzip reader and underlying file.
func (r *Reader) Close() error {
	r.gr.Close()
	return r.file.Close()
}
