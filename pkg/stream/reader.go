// Package stream reads the export artifact incrementally.
//
// Takeout activity files are a single huge JSON array. The reader walks the
// array one element at a time so memory use stays flat regardless of file
// size. It does not judge element shapes; that is the normalizer's job.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/tilth/pkg/core"
)

// Record is one raw element of the export array plus its position.
type Record struct {
	Index int
	Raw   json.RawMessage
}

// Reader iterates over a top-level JSON array without materializing it.
type Reader struct {
	src io.Closer
	dec *json.Decoder
	cur Record
	idx int
	err error
}

// Open opens the export artifact and positions the reader at the first
// element. It fails with core.ErrBadExport if the file is missing or the
// top-level value is not an array.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrBadExport, err)
	}

	dec := json.NewDecoder(bufio.NewReaderSize(f, 256*1024))

	tok, err := dec.Token()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", core.ErrBadExport, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		f.Close()
		return nil, fmt.Errorf("%w: top-level value is %v, expected an array", core.ErrBadExport, tok)
	}

	return &Reader{src: f, dec: dec, idx: -1}, nil
}

// Next advances to the next element. It returns false at the end of the
// array or on a structural error; check Err afterwards.
func (r *Reader) Next() bool {
	if r.err != nil || !r.dec.More() {
		return false
	}

	var raw json.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		// The array itself is broken; nothing past this point can be
		// delimited reliably.
		r.err = fmt.Errorf("%w: element %d: %v", core.ErrBadExport, r.idx+1, err)
		return false
	}

	r.idx++
	r.cur = Record{Index: r.idx, Raw: raw}
	return true
}

// Record returns the element produced by the last successful Next.
func (r *Reader) Record() Record {
	return r.cur
}

// Err reports a structural failure encountered while iterating.
func (r *Reader) Err() error {
	return r.err
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.src.Close()
}
