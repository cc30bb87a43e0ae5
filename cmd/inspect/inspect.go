package inspect

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	pio "github.com/hangxie/arrow-fixtures/io"
)

// ArrayLayout describes how an array is laid out in memory
type ArrayLayout struct {
	Type      string `json:"type"`
	Length    int    `json:"length"`
	Offset    int    `json:"offset"`
	NullCount int    `json:"nullCount"`
	// byte length of each buffer, -1 for absent buffer
	Buffers  []int         `json:"buffers"`
	Children []ArrayLayout `json:"children,omitempty"`
}

type batchBrief struct {
	Index   int   `json:"index"`
	NumRows int64 `json:"numRows"`
}

type columnBrief struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	NullCount int    `json:"nullCount"`
}

// Cmd is a kong command for inspect
type Cmd struct {
	URI    string `arg:"" predictor:"file" help:"URI of Arrow or Parquet file."`
	Batch  *int   `name:"batch" help:"Record batch index to inspect."`
	Column *int   `name:"column" help:"Column index to inspect (requires --batch)."`
	pio.ReadOption
}

// Run does actual inspect job
func (c Cmd) Run(logger *zap.Logger) error {
	if c.Column != nil && c.Batch == nil {
		return fmt.Errorf("--column requires --batch")
	}
	if c.Batch != nil && *c.Batch < 0 {
		return fmt.Errorf("invalid batch index %d", *c.Batch)
	}

	reader, err := pio.NewFileReader(c.URI, c.ReadOption, memory.DefaultAllocator)
	if err != nil {
		return err
	}
	defer func() {
		_ = reader.Close()
	}()
	logger.Debug("inspecting", zap.String("uri", c.URI), zap.String("format", reader.Format))

	if c.Batch == nil {
		return c.inspectFile(reader)
	}

	records := reader.Records()
	for index := 0; records.Next(); index++ {
		if index != *c.Batch {
			continue
		}
		if c.Column == nil {
			return c.inspectBatch(records.Record())
		}
		return c.inspectColumn(records.Record())
	}
	if err := records.Err(); err != nil {
		return fmt.Errorf("failed to read record batch: %w", err)
	}
	return fmt.Errorf("batch index %d out of range", *c.Batch)
}

func (c Cmd) inspectFile(reader *pio.FileReader) error {
	batches := []batchBrief{}
	records := reader.Records()
	for index := 0; records.Next(); index++ {
		batches = append(batches, batchBrief{Index: index, NumRows: records.Record().NumRows()})
	}
	if err := records.Err(); err != nil {
		return fmt.Errorf("failed to read record batch: %w", err)
	}

	return c.printJSON(map[string]any{
		"format":     reader.Format,
		"numColumns": reader.Schema().NumFields(),
		"numBatches": len(batches),
		"batches":    batches,
	})
}

func (c Cmd) inspectBatch(rec arrow.Record) error {
	columns := make([]columnBrief, rec.NumCols())
	for i, field := range rec.Schema().Fields() {
		columns[i] = columnBrief{
			Index:     i,
			Name:      field.Name,
			Type:      field.Type.String(),
			NullCount: rec.Column(i).NullN(),
		}
	}

	return c.printJSON(map[string]any{
		"batch":   *c.Batch,
		"numRows": rec.NumRows(),
		"columns": columns,
	})
}

func (c Cmd) inspectColumn(rec arrow.Record) error {
	if *c.Column < 0 || *c.Column >= int(rec.NumCols()) {
		return fmt.Errorf("column index %d out of range, batch has %d columns", *c.Column, rec.NumCols())
	}

	column := rec.Column(*c.Column)
	values := make([]any, column.Len())
	for i := range values {
		values[i] = column.GetOneForMarshal(i)
	}

	return c.printJSON(map[string]any{
		"batch":  *c.Batch,
		"column": *c.Column,
		"name":   rec.ColumnName(*c.Column),
		"layout": NewArrayLayout(column.Data()),
		"values": values,
	})
}

// NewArrayLayout walks data and its children
func NewArrayLayout(data arrow.ArrayData) ArrayLayout {
	layout := ArrayLayout{
		Type:      data.DataType().String(),
		Length:    data.Len(),
		Offset:    data.Offset(),
		NullCount: data.NullN(),
		Buffers:   make([]int, len(data.Buffers())),
	}
	for i, buf := range data.Buffers() {
		layout.Buffers[i] = -1
		if buf != nil {
			layout.Buffers[i] = buf.Len()
		}
	}
	for _, child := range data.Children() {
		layout.Children = append(layout.Children, NewArrayLayout(child))
	}
	return layout
}

func (c Cmd) printJSON(data any) error {
	buf, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Println(string(buf))
	return nil
}
