package meta

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/metadata"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

// Cmd is a kong command for meta
type Cmd struct {
	URI string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	pio.ReadOption
}

type columnMeta struct {
	PathInSchema     string
	Encodings        []string
	CompressedSize   int64
	UncompressedSize int64
	NumValues        int64
	CompressionCodec string
}

type rowGroupMeta struct {
	NumRows       int64
	TotalByteSize int64
	Columns       []columnMeta
}

type fileMeta struct {
	Format         string
	NumBatches     int
	RowsPerBatch   []int64
	NumRows        int64
	SchemaMetadata []string       `json:",omitempty"`
	RowGroups      []rowGroupMeta `json:",omitempty"`
}

// Run does actual meta job
func (c Cmd) Run(logger *zap.Logger) error {
	reader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()

	meta := fileMeta{
		Format:         reader.Format,
		SchemaMetadata: reader.Schema().Metadata().Keys(),
	}
	if fmd := reader.ParquetMetadata(); fmd != nil {
		if meta.RowGroups, err = buildRowGroups(fmd); err != nil {
			return err
		}
		for _, rg := range meta.RowGroups {
			meta.RowsPerBatch = append(meta.RowsPerBatch, rg.NumRows)
		}
	} else {
		records := reader.Records()
		for records.Next() {
			meta.RowsPerBatch = append(meta.RowsPerBatch, records.Record().NumRows())
		}
		if err := records.Err(); err != nil {
			return fmt.Errorf("failed to read record batch: %w", err)
		}
	}
	// empty files report [] rather than null
	meta.RowsPerBatch = append([]int64{}, meta.RowsPerBatch...)
	meta.NumBatches = len(meta.RowsPerBatch)
	for _, numRows := range meta.RowsPerBatch {
		meta.NumRows += numRows
	}
	if expected, known := reader.NumBatches(); known && expected != meta.NumBatches {
		logger.Warn("batch count mismatch", zap.Int("footer", expected), zap.Int("read", meta.NumBatches))
	}

	buf, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	fmt.Println(string(buf))

	return nil
}

func buildRowGroups(fmd *metadata.FileMetaData) ([]rowGroupMeta, error) {
	result := make([]rowGroupMeta, fmd.NumRowGroups())
	for i := range result {
		rg := fmd.RowGroup(i)
		columns := make([]columnMeta, rg.NumColumns())
		for j := range columns {
			chunk, err := rg.ColumnChunk(j)
			if err != nil {
				return nil, fmt.Errorf("failed to read column chunk %d of row group %d: %w", j, i, err)
			}
			encodings := make([]string, len(chunk.Encodings()))
			for k, enc := range chunk.Encodings() {
				encodings[k] = fmt.Sprint(enc)
			}
			columns[j] = columnMeta{
				PathInSchema:     fmd.Schema.Column(j).Path(),
				Encodings:        encodings,
				CompressedSize:   chunk.TotalCompressedSize(),
				UncompressedSize: chunk.TotalUncompressedSize(),
				NumValues:        chunk.NumValues(),
				CompressionCodec: chunk.Compression().String(),
			}
		}
		result[i] = rowGroupMeta{
			NumRows:       rg.NumRows(),
			TotalByteSize: rg.TotalByteSize(),
			Columns:       columns,
		}
	}
	return result, nil
}
