package schema

import "strings"

type JSONSchema struct {
	Tag    string
	Fields []JSONSchema `json:",omitempty"`
}

type jsonSchemaNode struct {
	SchemaNode
}

func (s jsonSchemaNode) Schema() JSONSchema {
	// these are tag/value pairs to be ignored as they are default values
	type tagValPair struct {
		tag string
		val string
	}

	tagsToIgnore := map[tagValPair]struct{}{
		{"nullable", "false"}: {},
	}
	tagMap := s.SchemaNode.GetTagMap()

	var annotations []string
	for _, tag := range orderedTags {
		if val, found := tagMap[tag]; found {
			if _, found := tagsToIgnore[tagValPair{tag, val}]; found {
				continue
			}
			annotations = append(annotations, tag+"="+val)
		}
	}
	ret := JSONSchema{
		Tag:    strings.Join(annotations, ", "),
		Fields: make([]JSONSchema, len(s.Children)),
	}

	for index, child := range s.Children {
		ret.Fields[index] = jsonSchemaNode{*child}.Schema()
	}

	return ret
}
