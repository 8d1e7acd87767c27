// Package archive provides an optional debug sink that serializes decoded
// messages to disk as length-delimited, gzip-compressed CBOR records.
package archive

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/fxamacker/cbor/v2"
	gzip "github.com/klauspost/pgzip"
)

const (
	defaultBufferSize           = 1 << 20
	defaultCompressionBlockSize = 1 << 20
)

// Record is one archived decoded message: the frame id, schema class
// name, and its attributes as a generic map tree (CBOR round-trips this
// without codegen, unlike the fixed-schema protobuf records the teacher's
// writer emits).
type Record struct {
	ID         uint16         `cbor:"id"`
	Name       string         `cbor:"name"`
	Attributes map[string]any `cbor:"attributes"`
}

// Archiver writes Records to a single gzip-compressed file, each record
// prefixed with its encoded length so the file can be streamed back
// record-by-record.
type Archiver struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	gw     *gzip.Writer
	closed bool
}

// Open creates (or truncates) path and prepares it to receive Records.
func Open(path string) (*Archiver, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("archive: create %s: %w", path, err)
	}

	buf := bufio.NewWriterSize(f, defaultBufferSize)
	gw := gzip.NewWriter(buf)
	if err := gw.SetConcurrency(defaultCompressionBlockSize, runtime.GOMAXPROCS(0)*2); err != nil {
		f.Close()
		return nil, fmt.Errorf("archive: configure compression: %w", err)
	}

	return &Archiver{file: f, buf: buf, gw: gw}, nil
}

// Write encodes rec as CBOR, prefixes it with its length, and writes it to
// the compressed stream.
func (a *Archiver) Write(rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return fmt.Errorf("archive: write after close")
	}

	data, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshal record: %w", err)
	}

	var lenPrefix [4]byte
	binary.BigEndian.PutUint32(lenPrefix[:], uint32(len(data)))
	if _, err := a.gw.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("archive: write length prefix: %w", err)
	}
	if _, err := a.gw.Write(data); err != nil {
		return fmt.Errorf("archive: write record: %w", err)
	}
	return nil
}

// Close flushes the gzip writer and the underlying buffered file writer,
// then closes the file.
func (a *Archiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true

	if err := a.gw.Close(); err != nil {
		a.file.Close()
		return fmt.Errorf("archive: close gzip writer: %w", err)
	}
	if err := a.buf.Flush(); err != nil {
		a.file.Close()
		return fmt.Errorf("archive: flush buffer: %w", err)
	}
	return a.file.Close()
}
