package fixture

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/extensions"
	"github.com/stretchr/testify/require"
)

func TestFixtureType(t *testing.T) {
	t.Run("registered", func(t *testing.T) {
		registered := arrow.GetExtensionType(ExtensionName)
		require.NotNil(t, registered)
		require.True(t, arrow.TypeEqual(NewFixtureType(), registered))
	})

	t.Run("serialize", func(t *testing.T) {
		typ := NewFixtureType()
		require.Equal(t, "extension_metadata", typ.Serialize())
		require.Equal(t, "extension_name", typ.ExtensionName())
		require.Equal(t, "extension<extension_name>", typ.String())
		require.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Uint8, typ.StorageType()))
	})

	testCases := map[string]struct {
		storage arrow.DataType
		data    string
		errMsg  string
	}{
		"round-trip":       {arrow.PrimitiveTypes.Uint8, ExtensionMetadata, ""},
		"bad-storage":      {arrow.PrimitiveTypes.Int8, ExtensionMetadata, "invalid storage type"},
		"bad-metadata":     {arrow.PrimitiveTypes.Uint8, "something-else", "invalid serialized metadata"},
		"missing-metadata": {arrow.PrimitiveTypes.Uint8, "", "invalid serialized metadata"},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			typ := NewFixtureType()
			got, err := typ.Deserialize(tc.storage, tc.data)
			if tc.errMsg != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			require.True(t, typ.ExtensionEquals(got))
			require.True(t, arrow.TypeEqual(typ, got))
		})
	}

	t.Run("not-equal-to-other-extension", func(t *testing.T) {
		require.False(t, NewFixtureType().ExtensionEquals(extensions.NewBool8Type()))
	})
}
