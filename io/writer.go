package io

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os/user"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blockblob"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/hangxie/parquet-go/v2/source"
	"github.com/hangxie/parquet-go/v2/source/azblob"
	"github.com/hangxie/parquet-go/v2/source/gcs"
	"github.com/hangxie/parquet-go/v2/source/hdfs"
	"github.com/hangxie/parquet-go/v2/source/local"
	"github.com/hangxie/parquet-go/v2/source/s3v2"
)

// WriteOption includes options for write operation
type WriteOption struct {
	Compression string `short:"z" help:"compression codec (UNCOMPRESSED/SNAPPY/GZIP/LZ4/LZ4_RAW/ZSTD/BROTLI)" enum:"UNCOMPRESSED,SNAPPY,GZIP,LZ4,LZ4_RAW,ZSTD,BROTLI" default:"UNCOMPRESSED"`
	Format      string `help:"output format (arrow/arrows/parquet), auto picks by file extension" enum:"auto,arrow,arrows,parquet" default:"auto"`
}

// RecordWriter writes record batches into a single output
type RecordWriter interface {
	Write(rec arrow.Record) error
	Close() error
}

func newLocalWriter(u *url.URL) (source.ParquetFileWriter, error) {
	fileWriter, err := local.NewLocalFileWriter(u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local file [%s]: %w", u.Path, err)
	}
	return fileWriter, nil
}

func newAWSS3Writer(u *url.URL) (source.ParquetFileWriter, error) {
	s3Client, err := getS3Client(u.Host, false, false)
	if err != nil {
		return nil, err
	}

	fileWriter, err := s3v2.NewS3FileWriterWithClient(context.Background(), s3Client, u.Host, strings.TrimLeft(u.Path, "/"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open S3 object [%s]: %w", u.String(), err)
	}
	return fileWriter, nil
}

func newGoogleCloudStorageWriter(u *url.URL) (source.ParquetFileWriter, error) {
	fileWriter, err := gcs.NewGcsFileWriter(context.Background(), "", u.Host, strings.TrimLeft(u.Path, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to open GCS object [%s]: %w", u.String(), err)
	}
	return fileWriter, nil
}

func newAzureStorageBlobWriter(u *url.URL) (source.ParquetFileWriter, error) {
	// write operation cannot be with anonymous access
	azURL, cred, err := azureAccessDetail(*u, false, "")
	if err != nil {
		return nil, err
	}

	fileWriter, err := azblob.NewAzBlobFileWriter(context.Background(), azURL, cred, blockblob.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open Azure blob object [%s]: %w", u.String(), err)
	}
	return fileWriter, nil
}

func newHTTPWriter(u *url.URL) (source.ParquetFileWriter, error) {
	return nil, fmt.Errorf("writing to [%s] endpoint is not currently supported", u.Scheme)
}

func newHDFSWriter(u *url.URL) (source.ParquetFileWriter, error) {
	userName := u.User.Username()
	if userName == "" {
		osUser, err := user.Current()
		if err == nil && osUser != nil {
			userName = osUser.Username
		}
	}
	fileWriter, err := hdfs.NewHdfsFileWriter([]string{u.Host}, userName, u.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open HDFS source [%s]: %w", u.String(), err)
	}
	return fileWriter, nil
}

// NewSourceWriter creates the object at URI, data is committed on Close
func NewSourceWriter(URI string) (io.WriteCloser, error) {
	writerFuncTable := map[string]func(*url.URL) (source.ParquetFileWriter, error){
		schemeLocal:              newLocalWriter,
		schemeAWSS3:              newAWSS3Writer,
		schemeGoogleCloudStorage: newGoogleCloudStorageWriter,
		schemeAzureStorageBlob:   newAzureStorageBlobWriter,
		schemeHTTP:               newHTTPWriter,
		schemeHTTPS:              newHTTPWriter,
		schemeHDFS:               newHDFSWriter,
	}

	u, err := parseURI(URI)
	if err != nil {
		return nil, err
	}
	if writerFunc, found := writerFuncTable[u.Scheme]; found {
		return writerFunc(u)
	}
	return nil, fmt.Errorf("unknown location scheme [%s]", u.Scheme)
}

// ipcRecordWriter covers both IPC file and IPC stream since ipc.Writer and
// ipc.FileWriter share Write/Close.
type ipcRecordWriter struct {
	w   RecordWriter
	dst io.Closer
}

func (w *ipcRecordWriter) Write(rec arrow.Record) error {
	return w.w.Write(rec)
}

func (w *ipcRecordWriter) Close() error {
	if err := w.w.Close(); err != nil {
		_ = w.dst.Close()
		return err
	}
	return w.dst.Close()
}

type parquetRecordWriter struct {
	w   *pqarrow.FileWriter
	dst io.Closer
}

func (w *parquetRecordWriter) Write(rec arrow.Record) error {
	return w.w.Write(rec)
}

func (w *parquetRecordWriter) Close() error {
	if err := w.w.Close(); err != nil {
		_ = w.dst.Close()
		return err
	}
	return w.dst.Close()
}

// NewRecordWriter opens URI and prepares a writer of option.Format for
// records of the given schema.
func NewRecordWriter(URI string, option WriteOption, schema *arrow.Schema, mem memory.Allocator) (RecordWriter, error) {
	format, err := resolveFormat(URI, option.Format)
	if err != nil {
		return nil, err
	}
	codec, err := validateCodec(format, option.Compression)
	if err != nil {
		return nil, err
	}

	dst, err := NewSourceWriter(URI)
	if err != nil {
		return nil, err
	}
	// formats write a footer on close, the sink is closed afterwards by us
	sink := struct{ io.Writer }{dst}

	switch format {
	case FormatArrow, FormatArrowStream:
		opts := []ipc.Option{ipc.WithSchema(schema), ipc.WithAllocator(mem)}
		if opt := ipcCompressionOption(codec); opt != nil {
			opts = append(opts, opt)
		}
		if format == FormatArrowStream {
			return &ipcRecordWriter{w: ipc.NewWriter(sink, opts...), dst: dst}, nil
		}
		fw, err := ipc.NewFileWriter(sink, opts...)
		if err != nil {
			_ = dst.Close()
			return nil, fmt.Errorf("failed to create Arrow file writer for [%s]: %w", URI, err)
		}
		return &ipcRecordWriter{w: fw, dst: dst}, nil
	default:
		props := parquet.NewWriterProperties(
			parquet.WithCompression(parquetCompression(codec)),
			parquet.WithAllocator(mem),
		)
		arrProps := pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema())
		fw, err := pqarrow.NewFileWriter(schema, sink, props, arrProps)
		if err != nil {
			_ = dst.Close()
			return nil, fmt.Errorf("failed to create Parquet writer for [%s]: %w", URI, err)
		}
		return &parquetRecordWriter{w: fw, dst: dst}, nil
	}
}

// WriteRecords writes all records to URI and closes it.
func WriteRecords(URI string, option WriteOption, schema *arrow.Schema, records []arrow.Record, mem memory.Allocator) error {
	w, err := NewRecordWriter(URI, option, schema, mem)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to write data to [%s]: %w", URI, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close [%s]: %w", URI, err)
	}
	return nil
}
