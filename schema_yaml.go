package goserde

import (
	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParseSchemaYAML parses a schema definition authored in YAML. The YAML
// document is converted to the JSON data model and then parsed exactly like
// ParseSchema, so the two forms are interchangeable (JSON being a YAML subset).
func ParseSchemaYAML(text string) (*Schema, error) {
	var raw any
	if err := yaml.Unmarshal([]byte(text), &raw); err != nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaParse, Message: "malformed YAML schema text", Cause: err, Offset: -1}}
	}
	js, err := gojson.Marshal(raw)
	if err != nil {
		return nil, Issues{{Path: "/", Code: CodeSchemaParse, Message: "schema text does not map onto the JSON data model", Cause: err, Offset: -1}}
	}
	return ParseSchema(string(js))
}
