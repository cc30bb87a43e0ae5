package io

import (
	"bytes"
	"testing"

	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/stretchr/testify/require"
)

func TestFormatFromURI(t *testing.T) {
	testCases := map[string]struct {
		uri    string
		format string
	}{
		"arrow":           {"table.arrow", FormatArrow},
		"feather":         {"path/to/table.feather", FormatArrow},
		"ipc":             {"file:///tmp/table.ipc", FormatArrow},
		"stream":          {"s3://bucket/table.arrows", FormatArrowStream},
		"parquet":         {"gs://bucket/table.parquet", FormatParquet},
		"parquet-short":   {"table.PQ", FormatParquet},
		"unknown-ext":     {"table.bin", FormatArrow},
		"no-ext":          {"table", FormatArrow},
		"invalid-uri":     {"://uri", FormatArrow},
		"ext-in-dir-only": {"dir.parquet/table", FormatArrow},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.format, FormatFromURI(tc.uri))
		})
	}
}

func TestResolveFormat(t *testing.T) {
	testCases := map[string]struct {
		uri    string
		format string
		result string
		errMsg string
	}{
		"empty":    {"table.parquet", "", FormatParquet, ""},
		"auto":     {"table.arrows", "auto", FormatArrowStream, ""},
		"explicit": {"table.parquet", FormatArrow, FormatArrow, ""},
		"unknown":  {"table.arrow", "csv", "", "unknown format [csv]"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			format, err := resolveFormat(tc.uri, tc.format)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.result, format)
		})
	}
}

func TestValidateCodec(t *testing.T) {
	testCases := map[string]struct {
		format string
		codec  string
		result string
		errMsg string
	}{
		"arrow-default":      {FormatArrow, "", "UNCOMPRESSED", ""},
		"arrow-lz4":          {FormatArrow, "lz4", "LZ4", ""},
		"arrows-zstd":        {FormatArrowStream, "ZSTD", "ZSTD", ""},
		"arrow-snappy":       {FormatArrow, "SNAPPY", "", "[SNAPPY] compression is not supported by arrow format"},
		"parquet-lz4":        {FormatParquet, "LZ4", "", "[LZ4] compression is not supported by parquet format"},
		"parquet-lz4-raw":    {FormatParquet, "LZ4_RAW", "LZ4_RAW", ""},
		"parquet-brotli":     {FormatParquet, "BROTLI", "BROTLI", ""},
		"parquet-unknown":    {FormatParquet, "LZO", "", "invalid compression codec [LZO]"},
		"parquet-whitespace": {FormatParquet, " ", "", "invalid compression codec"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			codec, err := validateCodec(tc.format, tc.codec)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.result, codec)
		})
	}
}

func TestCompressionOptions(t *testing.T) {
	require.Nil(t, ipcCompressionOption("UNCOMPRESSED"))
	require.NotNil(t, ipcCompressionOption("LZ4"))
	require.NotNil(t, ipcCompressionOption("ZSTD"))

	testCases := map[string]compress.Compression{
		"UNCOMPRESSED": compress.Codecs.Uncompressed,
		"SNAPPY":       compress.Codecs.Snappy,
		"GZIP":         compress.Codecs.Gzip,
		"LZ4_RAW":      compress.Codecs.Lz4Raw,
		"ZSTD":         compress.Codecs.Zstd,
		"BROTLI":       compress.Codecs.Brotli,
	}
	for codec, expected := range testCases {
		t.Run(codec, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, expected, parquetCompression(codec))
		})
	}
}

func TestDetectFormat(t *testing.T) {
	testCases := map[string]struct {
		header []byte
		format string
		errMsg string
	}{
		"empty":      {[]byte{}, "", "empty file"},
		"arrow":      {[]byte("ARROW1\x00\x00more"), FormatArrow, ""},
		"parquet":    {[]byte("PAR1xxxxxxxx"), FormatParquet, ""},
		"short":      {[]byte("PAR1"), FormatParquet, ""},
		"stream":     {[]byte{0xff, 0xff, 0xff, 0xff, 0x10, 0x00, 0x00, 0x00}, FormatArrowStream, ""},
		"one-byte":   {[]byte("A"), FormatArrowStream, ""},
		"arrow-like": {[]byte("ARROW"), FormatArrowStream, ""},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			format, err := DetectFormat(bytes.NewReader(tc.header))
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.format, format)
		})
	}
}
