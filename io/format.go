package io

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/parquet/compress"
)

const (
	// FormatArrow is the Arrow IPC file format, a.k.a. Feather V2
	FormatArrow = "arrow"
	// FormatArrowStream is the Arrow IPC streaming format
	FormatArrowStream = "arrows"
	// FormatParquet is Parquet with the Arrow schema stored in metadata
	FormatParquet = "parquet"

	formatAuto = "auto"
)

// ValidFormats lists the formats supported for reading and writing.
var ValidFormats = []string{FormatArrow, FormatArrowStream, FormatParquet}

// ValidCompressionCodecs lists the compression codecs supported for writing.
var ValidCompressionCodecs = []string{
	"UNCOMPRESSED", "SNAPPY", "GZIP", "LZ4", "LZ4_RAW", "ZSTD", "BROTLI",
}

var formatCodecs = map[string][]string{
	FormatArrow:       {"UNCOMPRESSED", "LZ4", "ZSTD"},
	FormatArrowStream: {"UNCOMPRESSED", "LZ4", "ZSTD"},
	FormatParquet:     {"UNCOMPRESSED", "SNAPPY", "GZIP", "LZ4_RAW", "ZSTD", "BROTLI"},
}

var extensionFormats = map[string]string{
	".arrow":   FormatArrow,
	".feather": FormatArrow,
	".ipc":     FormatArrow,
	".arrows":  FormatArrowStream,
	".parquet": FormatParquet,
	".pq":      FormatParquet,
}

var (
	magicArrow   = []byte("ARROW1")
	magicParquet = []byte("PAR1")
)

// FormatFromURI guesses format from file extension, unknown extensions are
// treated as Arrow IPC file.
func FormatFromURI(URI string) string {
	u, err := parseURI(URI)
	if err != nil {
		return FormatArrow
	}
	if format, found := extensionFormats[strings.ToLower(path.Ext(u.Path))]; found {
		return format
	}
	return FormatArrow
}

func resolveFormat(URI, format string) (string, error) {
	switch format {
	case "", formatAuto:
		return FormatFromURI(URI), nil
	case FormatArrow, FormatArrowStream, FormatParquet:
		return format, nil
	}
	return "", fmt.Errorf("unknown format [%s], valid formats: %s", format, strings.Join(ValidFormats, ", "))
}

func validateCodec(format, codecName string) (string, error) {
	codecName = strings.ToUpper(codecName)
	if codecName == "" {
		codecName = "UNCOMPRESSED"
	}
	if !slices.Contains(ValidCompressionCodecs, codecName) {
		return "", fmt.Errorf("invalid compression codec [%s], valid codecs: %s", codecName, strings.Join(ValidCompressionCodecs, ", "))
	}
	if !slices.Contains(formatCodecs[format], codecName) {
		return "", fmt.Errorf("[%s] compression is not supported by %s format, valid codecs: %s", codecName, format, strings.Join(formatCodecs[format], ", "))
	}
	return codecName, nil
}

func ipcCompressionOption(codecName string) ipc.Option {
	switch codecName {
	case "LZ4":
		return ipc.WithLZ4()
	case "ZSTD":
		return ipc.WithZstd()
	}
	return nil
}

func parquetCompression(codecName string) compress.Compression {
	switch codecName {
	case "SNAPPY":
		return compress.Codecs.Snappy
	case "GZIP":
		return compress.Codecs.Gzip
	case "LZ4_RAW":
		return compress.Codecs.Lz4Raw
	case "ZSTD":
		return compress.Codecs.Zstd
	case "BROTLI":
		return compress.Codecs.Brotli
	}
	return compress.Codecs.Uncompressed
}

// DetectFormat tells the container format by its leading magic bytes,
// anything else is assumed to be an IPC stream.
func DetectFormat(r io.ReaderAt) (string, error) {
	buf := make([]byte, len(magicArrow))
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]
	switch {
	case n == 0:
		return "", fmt.Errorf("empty file")
	case bytes.HasPrefix(buf, magicArrow):
		return FormatArrow, nil
	case bytes.HasPrefix(buf, magicParquet):
		return FormatParquet, nil
	}
	return FormatArrowStream, nil
}
