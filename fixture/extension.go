package fixture

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

const (
	// ExtensionName is the registered name of FixtureType
	ExtensionName = "extension_name"
	// ExtensionMetadata is the serialized form of FixtureType
	ExtensionMetadata = "extension_metadata"
)

func init() {
	if err := arrow.RegisterExtensionType(NewFixtureType()); err != nil {
		panic(err)
	}
}

// FixtureType is a user defined logical type stored as uint8. It has no
// parameters, the serialized metadata is a fixed blob that only identifies
// the type on read.
type FixtureType struct {
	arrow.ExtensionBase
}

// NewFixtureType returns a FixtureType backed by uint8 storage.
func NewFixtureType() *FixtureType {
	return &FixtureType{ExtensionBase: arrow.ExtensionBase{Storage: arrow.PrimitiveTypes.Uint8}}
}

func (t *FixtureType) ArrayType() reflect.Type { return reflect.TypeOf(FixtureArray{}) }

func (t *FixtureType) ExtensionName() string { return ExtensionName }

func (t *FixtureType) Serialize() string { return ExtensionMetadata }

func (t *FixtureType) Deserialize(storageType arrow.DataType, data string) (arrow.ExtensionType, error) {
	if !arrow.TypeEqual(storageType, arrow.PrimitiveTypes.Uint8) {
		return nil, fmt.Errorf("invalid storage type for %s: %s", ExtensionName, storageType)
	}
	if data != ExtensionMetadata {
		return nil, fmt.Errorf("invalid serialized metadata for %s: [%s]", ExtensionName, data)
	}
	return NewFixtureType(), nil
}

func (t *FixtureType) ExtensionEquals(other arrow.ExtensionType) bool {
	return t.ExtensionName() == other.ExtensionName() && t.Serialize() == other.Serialize()
}

func (t *FixtureType) String() string { return fmt.Sprintf("extension<%s>", ExtensionName) }

// FixtureArray is the array type of FixtureType.
type FixtureArray struct {
	array.ExtensionArrayBase
}

// Value returns the storage value at index i.
func (a *FixtureArray) Value(i int) uint8 {
	return a.Storage().(*array.Uint8).Value(i)
}

func (a *FixtureArray) String() string {
	var o strings.Builder
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		if a.IsNull(i) {
			o.WriteString(array.NullValueStr)
			continue
		}
		fmt.Fprintf(&o, "%d", a.Value(i))
	}
	o.WriteString("]")
	return o.String()
}
