package io

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const parquetBatchSize = 64 * 1024

// FileReader reads record batches from an Arrow IPC file, an Arrow IPC
// stream, or a Parquet file.
type FileReader struct {
	Format string

	src     ReadAtSeekCloser
	records array.RecordReader
	ipcFile *ipc.FileReader
	pqFile  *file.Reader
}

// ipcFileRecords walks an IPC file batch by batch
type ipcFileRecords struct {
	refCount int64
	r        *ipc.FileReader
	index    int
	cur      arrow.Record
	err      error
}

func (f *ipcFileRecords) Retain() { atomic.AddInt64(&f.refCount, 1) }

func (f *ipcFileRecords) Release() {
	if atomic.AddInt64(&f.refCount, -1) == 0 && f.cur != nil {
		f.cur.Release()
		f.cur = nil
	}
}

func (f *ipcFileRecords) Schema() *arrow.Schema { return f.r.Schema() }

func (f *ipcFileRecords) Next() bool {
	if f.cur != nil {
		f.cur.Release()
		f.cur = nil
	}
	if f.err != nil || f.index >= f.r.NumRecords() {
		return false
	}
	f.cur, f.err = f.r.RecordAt(f.index)
	f.index++
	return f.err == nil
}

func (f *ipcFileRecords) Record() arrow.Record { return f.cur }

func (f *ipcFileRecords) RecordBatch() arrow.RecordBatch { return f.cur }

func (f *ipcFileRecords) Err() error { return f.err }

// eofRecords hides io.EOF reported at the end of Parquet record readers
type eofRecords struct {
	array.RecordReader
}

func (e eofRecords) Err() error {
	if err := e.RecordReader.Err(); !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// NewFileReader opens URI and detects its format.
func NewFileReader(URI string, option ReadOption, mem memory.Allocator) (*FileReader, error) {
	src, err := NewSourceReader(URI, option)
	if err != nil {
		return nil, err
	}

	format, err := DetectFormat(src)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("unable to read [%s]: %w", URI, err)
	}

	reader := &FileReader{Format: format, src: src}
	if err := reader.open(mem); err != nil {
		_ = reader.Close()
		return nil, fmt.Errorf("unable to read %s format from [%s]: %w", format, URI, err)
	}
	return reader, nil
}

func (r *FileReader) open(mem memory.Allocator) error {
	switch r.Format {
	case FormatArrow:
		size, err := r.src.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		fr, err := ipc.NewFileReader(io.NewSectionReader(r.src, 0, size), ipc.WithAllocator(mem))
		if err != nil {
			return err
		}
		r.ipcFile = fr
		r.records = &ipcFileRecords{refCount: 1, r: fr}
	case FormatArrowStream:
		size, err := r.src.Seek(0, io.SeekEnd)
		if err != nil {
			return err
		}
		rr, err := ipc.NewReader(io.NewSectionReader(r.src, 0, size), ipc.WithAllocator(mem))
		if err != nil {
			return err
		}
		r.records = rr
	case FormatParquet:
		// closing src is left to FileReader.Close
		pf, err := file.NewParquetReader(struct {
			io.ReaderAt
			io.Seeker
		}{r.src, r.src})
		if err != nil {
			return err
		}
		r.pqFile = pf
		fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize}, mem)
		if err != nil {
			return err
		}
		rr, err := fr.GetRecordReader(context.Background(), nil, nil)
		if err != nil {
			return err
		}
		r.records = eofRecords{rr}
	default:
		return fmt.Errorf("unknown format [%s]", r.Format)
	}
	return nil
}

// Schema returns the Arrow schema, extension types registered in this
// process are restored.
func (r *FileReader) Schema() *arrow.Schema {
	return r.records.Schema()
}

// Records gives access to the record batches, records are only valid until
// the next call of Next.
func (r *FileReader) Records() array.RecordReader {
	return r.records
}

// NumBatches returns number of record batches (row groups for Parquet), it
// is unknown for IPC streams till they are read.
func (r *FileReader) NumBatches() (int, bool) {
	switch {
	case r.ipcFile != nil:
		return r.ipcFile.NumRecords(), true
	case r.pqFile != nil:
		return r.pqFile.NumRowGroups(), true
	}
	return 0, false
}

// FileSize returns size of the underlying file in bytes.
func (r *FileReader) FileSize() (int64, error) {
	return r.src.Seek(0, io.SeekEnd)
}

// FooterSize returns the footer length stored right before the trailing
// magic bytes, IPC streams have no footer and report 0.
func (r *FileReader) FooterSize() (uint32, error) {
	var magic []byte
	switch r.Format {
	case FormatArrow:
		magic = magicArrow
	case FormatParquet:
		magic = magicParquet
	default:
		return 0, nil
	}

	fileSize, err := r.FileSize()
	if err != nil {
		return 0, err
	}
	buf := make([]byte, 4+len(magic))
	if fileSize < int64(len(buf)) {
		return 0, fmt.Errorf("file of %d bytes is too small to have a footer", fileSize)
	}
	if _, err := r.src.ReadAt(buf, fileSize-int64(len(buf))); err != nil {
		return 0, fmt.Errorf("failed to read footer length: %w", err)
	}
	if !bytes.Equal(buf[4:], magic) {
		return 0, fmt.Errorf("invalid trailing magic bytes [%x]", buf[4:])
	}
	return binary.LittleEndian.Uint32(buf[:4]), nil
}

// ParquetMetadata returns footer of Parquet file, nil for other formats.
func (r *FileReader) ParquetMetadata() *metadata.FileMetaData {
	if r.pqFile == nil {
		return nil
	}
	return r.pqFile.MetaData()
}

// ReadTable reads all remaining record batches into a table.
func (r *FileReader) ReadTable() (arrow.Table, error) {
	var records []arrow.Record
	defer func() {
		for _, rec := range records {
			rec.Release()
		}
	}()

	for r.records.Next() {
		rec := r.records.Record()
		rec.Retain()
		records = append(records, rec)
	}
	if err := r.records.Err(); err != nil {
		return nil, fmt.Errorf("failed to read record batch: %w", err)
	}
	return array.NewTableFromRecords(r.Schema(), records), nil
}

// NumRows counts rows of all remaining record batches.
func (r *FileReader) NumRows() (int64, error) {
	if r.pqFile != nil {
		return r.pqFile.NumRows(), nil
	}

	var numRows int64
	for r.records.Next() {
		numRows += r.records.Record().NumRows()
	}
	if err := r.records.Err(); err != nil {
		return 0, fmt.Errorf("failed to read record batch: %w", err)
	}
	return numRows, nil
}

// Close releases record batches and closes the underlying source.
func (r *FileReader) Close() error {
	if r.records != nil {
		r.records.Release()
		r.records = nil
	}
	if r.ipcFile != nil {
		_ = r.ipcFile.Close()
		r.ipcFile = nil
	}
	return r.src.Close()
}
