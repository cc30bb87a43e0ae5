package schema

import (
	"fmt"
	"slices"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/goccy/go-json"
)

// PathDelimiter joins field names into a column path
const PathDelimiter = "."

// this represents order of tags in JSON schema
var orderedTags = []string{
	"name",
	"type",
	"length",
	"storagetype",
	"extensionname",
	"extensionmetadata",
	"nullable",
	"metadata",
}

type SchemaNode struct {
	Name              string            `json:"name"`
	Type              string            `json:"type"`
	Nullable          bool              `json:"nullable"`
	Length            int               `json:"length,omitempty"`
	StorageType       string            `json:"storageType,omitempty"`
	ExtensionName     string            `json:"extensionName,omitempty"`
	ExtensionMetadata string            `json:"extensionMetadata,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
	Children          []*SchemaNode     `json:"children,omitempty"`
	Path              []string          `json:"path,omitempty"`
}

// NewSchemaTree builds a node tree from an Arrow schema, the root node is a
// STRUCT named "root" whose children are the top level fields.
func NewSchemaTree(schema *arrow.Schema) *SchemaNode {
	root := &SchemaNode{
		Name:     "root",
		Type:     arrow.STRUCT.String(),
		Metadata: metadataMap(schema.Metadata()),
		Children: make([]*SchemaNode, schema.NumFields()),
		Path:     []string{},
	}
	for i, field := range schema.Fields() {
		root.Children[i] = newSchemaNode(field, nil)
	}
	return root
}

func newSchemaNode(field arrow.Field, parentPath []string) *SchemaNode {
	node := &SchemaNode{
		Name:     field.Name,
		Type:     field.Type.ID().String(),
		Nullable: field.Nullable,
		Metadata: metadataMap(field.Metadata),
		Path:     append(append([]string{}, parentPath...), field.Name),
	}

	dt := field.Type
	if ext, ok := dt.(arrow.ExtensionType); ok {
		node.ExtensionName = ext.ExtensionName()
		node.ExtensionMetadata = ext.Serialize()
		node.StorageType = ext.StorageType().ID().String()
		dt = ext.StorageType()
	}

	switch t := dt.(type) {
	case *arrow.FixedSizeListType:
		node.Length = int(t.Len())
	case *arrow.FixedSizeBinaryType:
		node.Length = t.ByteWidth
	}

	switch t := dt.(type) {
	case *arrow.StructType:
		node.Children = make([]*SchemaNode, t.NumFields())
		for i, child := range t.Fields() {
			node.Children[i] = newSchemaNode(child, node.Path)
		}
	case arrow.ListLikeType:
		node.Children = []*SchemaNode{newSchemaNode(t.ElemField(), node.Path)}
	}
	return node
}

func metadataMap(md arrow.Metadata) map[string]string {
	if md.Len() == 0 {
		return nil
	}
	ret := make(map[string]string, md.Len())
	for i, key := range md.Keys() {
		ret[key] = md.Values()[i]
	}
	return ret
}

func (s *SchemaNode) GetTagMap() map[string]string {
	tagMap := map[string]string{
		"name":     s.Name,
		"type":     s.Type,
		"nullable": fmt.Sprint(s.Nullable),
	}
	if s.Length != 0 {
		tagMap["length"] = fmt.Sprint(s.Length)
	}
	if s.ExtensionName != "" {
		tagMap["storagetype"] = s.StorageType
		tagMap["extensionname"] = s.ExtensionName
		tagMap["extensionmetadata"] = s.ExtensionMetadata
	}
	if len(s.Metadata) != 0 {
		pairs := make([]string, 0, len(s.Metadata))
		for key, val := range s.Metadata {
			pairs = append(pairs, key+":"+val)
		}
		slices.Sort(pairs)
		tagMap["metadata"] = strings.Join(pairs, ";")
	}
	return tagMap
}

// GetPathMap indexes every node except root by its dotted path
func (s *SchemaNode) GetPathMap() map[string]*SchemaNode {
	retVal := map[string]*SchemaNode{}
	queue := append([]*SchemaNode{}, s.Children...)
	for len(queue) > 0 {
		node := queue[0]
		queue = append(queue[1:], node.Children...)
		retVal[strings.Join(node.Path, PathDelimiter)] = node
	}
	return retVal
}

// Leaves returns nodes without children in depth-first order
func (s *SchemaNode) Leaves() []*SchemaNode {
	if len(s.Children) == 0 {
		return []*SchemaNode{s}
	}
	var leaves []*SchemaNode
	for _, child := range s.Children {
		leaves = append(leaves, child.Leaves()...)
	}
	return leaves
}

func (s SchemaNode) JSONSchema() string {
	schema, _ := json.Marshal(jsonSchemaNode{s}.Schema())
	return string(schema)
}
