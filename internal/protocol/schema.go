package protocol

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

const schemaBase = "https://parkcraft.io/schemas/"

var inboundSchemas = map[string]string{
	TypeHello:    "hello.schema.json",
	TypeTool:     "tool.schema.json",
	TypeScenery:  "scenery.schema.json",
	TypeAuditReq: "audit_req.schema.json",
}

// Validator checks inbound client messages against the embedded schemas.
type Validator struct {
	byType map[string]*jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	c := jsonschema.NewCompiler()
	for _, name := range inboundSchemas {
		b, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, err
		}
		if err := c.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	v := &Validator{byType: map[string]*jsonschema.Schema{}}
	for typ, name := range inboundSchemas {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", name, err)
		}
		v.byType[typ] = s
	}
	return v, nil
}

// Validate checks raw against the schema for msgType. Types without a
// schema are rejected.
func (v *Validator) Validate(msgType string, raw []byte) error {
	s := v.byType[msgType]
	if s == nil {
		return fmt.Errorf("no schema for message type %q", msgType)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	return s.Validate(doc)
}
