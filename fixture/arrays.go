package fixture

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

// NewFixedSizeList groups values into sub-lists of width elements each.
func NewFixedSizeList(values arrow.Array, width int32) (*array.FixedSizeList, error) {
	if width <= 0 {
		return nil, fmt.Errorf("invalid fixed size list width %d, needs to be at least 1", width)
	}
	if values.Len()%int(width) != 0 {
		return nil, fmt.Errorf("fixed size list of width %d cannot hold %d values", width, values.Len())
	}

	dt := arrow.FixedSizeListOf(width, values.DataType())
	data := array.NewData(dt, values.Len()/int(width), []*memory.Buffer{nil}, []arrow.ArrayData{values.Data()}, 0, 0)
	defer data.Release()
	return array.NewFixedSizeListData(data), nil
}

// NewListFromOffsets builds a list array where element i spans
// values[offsets[i]:offsets[i+1]].
func NewListFromOffsets(offsets []int32, values arrow.Array) (*array.List, error) {
	if len(offsets) == 0 {
		return nil, fmt.Errorf("list offsets cannot be empty")
	}
	if offsets[0] < 0 {
		return nil, fmt.Errorf("invalid first list offset %d", offsets[0])
	}
	for i := 1; i < len(offsets); i++ {
		if offsets[i] < offsets[i-1] {
			return nil, fmt.Errorf("list offsets decrease at index %d: %d < %d", i, offsets[i], offsets[i-1])
		}
	}
	if last := offsets[len(offsets)-1]; int(last) > values.Len() {
		return nil, fmt.Errorf("last list offset %d is out of range, values has %d elements", last, values.Len())
	}

	offsetBuf := memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offsets))

	dt := arrow.ListOf(values.DataType())
	data := array.NewData(dt, len(offsets)-1, []*memory.Buffer{nil, offsetBuf}, []arrow.ArrayData{values.Data()}, 0, 0)
	defer data.Release()
	return array.NewListData(data), nil
}

func uint8Array(mem memory.Allocator, values []uint8) *array.Uint8 {
	bldr := array.NewUint8Builder(mem)
	defer bldr.Release()
	bldr.AppendValues(values, nil)
	return bldr.NewUint8Array()
}

func float64Array(mem memory.Allocator, values []float64) *array.Float64 {
	bldr := array.NewFloat64Builder(mem)
	defer bldr.Release()
	bldr.AppendValues(values, nil)
	return bldr.NewFloat64Array()
}

// FixedSizeListArray returns [[1 2] [3 4] [5 6]] as fixed_size_list<uint8>[2].
func FixedSizeListArray(mem memory.Allocator) (*array.FixedSizeList, error) {
	coords := uint8Array(mem, []uint8{1, 2, 3, 4, 5, 6})
	defer coords.Release()
	return NewFixedSizeList(coords, 2)
}

// StructArray returns {x: 1, y: 5}, {x: 2, y: 6}, {x: 3, y: 7}.
func StructArray(mem memory.Allocator) (*array.Struct, error) {
	x := float64Array(mem, []float64{1, 2, 3})
	defer x.Release()
	y := float64Array(mem, []float64{5, 6, 7})
	defer y.Release()
	return array.NewStructArray([]arrow.Array{x, y}, []string{"x", "y"})
}

// BinaryArray returns variable length byte strings "a", "ab", "abc".
func BinaryArray(mem memory.Allocator) (*array.Binary, error) {
	bldr := array.NewBinaryBuilder(mem, arrow.BinaryTypes.Binary)
	defer bldr.Release()
	bldr.AppendValues([][]byte{[]byte("a"), []byte("ab"), []byte("abc")}, nil)
	return bldr.NewBinaryArray(), nil
}

// FixedSizeBinaryArray returns "a", "b", "c" as fixed_size_binary[1].
func FixedSizeBinaryArray(mem memory.Allocator) (*array.FixedSizeBinary, error) {
	bldr := array.NewFixedSizeBinaryBuilder(mem, &arrow.FixedSizeBinaryType{ByteWidth: 1})
	defer bldr.Release()
	bldr.AppendValues([][]byte{[]byte("a"), []byte("b"), []byte("c")}, nil)
	return bldr.NewFixedSizeBinaryArray(), nil
}

// StringArray returns "a", "foo", "barbaz".
func StringArray(mem memory.Allocator) (*array.String, error) {
	bldr := array.NewStringBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues([]string{"a", "foo", "barbaz"}, nil)
	return bldr.NewStringArray(), nil
}

// BooleanArray returns true, false, true.
func BooleanArray(mem memory.Allocator) (*array.Boolean, error) {
	bldr := array.NewBooleanBuilder(mem)
	defer bldr.Release()
	bldr.AppendValues([]bool{true, false, true}, nil)
	return bldr.NewBooleanArray(), nil
}

// NullArray returns three nulls.
func NullArray(_ memory.Allocator) (*array.Null, error) {
	return array.NewNull(3), nil
}

// ListArray returns [[1] [2 3] [4 5 6]].
func ListArray(mem memory.Allocator) (*array.List, error) {
	values := uint8Array(mem, []uint8{1, 2, 3, 4, 5, 6})
	defer values.Release()
	return NewListFromOffsets([]int32{0, 1, 3, 6}, values)
}

// ExtensionArray returns 1, 2, 3 tagged with FixtureType.
func ExtensionArray(mem memory.Allocator) (*FixtureArray, error) {
	storage := uint8Array(mem, []uint8{1, 2, 3})
	defer storage.Release()

	ext := array.NewExtensionArrayWithStorage(NewFixtureType(), storage)
	arr, ok := ext.(*FixtureArray)
	if !ok {
		ext.Release()
		return nil, fmt.Errorf("unexpected extension array type %T", ext)
	}
	return arr, nil
}
