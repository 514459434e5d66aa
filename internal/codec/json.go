// Package codec serializes graphs to and from the console's JSON download
// format. Import re-validates structure with JSON Schema before accepting a
// document; nothing here touches disk or network.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/acso/flowcanvas/pkg/schema"
)

// graphSchemaJSON is the JSON Schema for exported graph documents.
// Embedded as a constant to avoid filesystem dependencies.
const graphSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://acso.dev/schemas/graph.json",
  "type": "object",
  "required": ["id", "name", "nodes", "connections"],
  "properties": {
    "id": { "type": "string", "minLength": 1 },
    "name": { "type": "string" },
    "description": { "type": "string" },
    "version": { "type": "string" },
    "nodes": {
      "type": "object",
      "additionalProperties": { "$ref": "#/$defs/node" }
    },
    "connections": {
      "type": "object",
      "additionalProperties": { "$ref": "#/$defs/connection" }
    },
    "variables": { "type": "object" },
    "metadata": { "$ref": "#/$defs/metadata" }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "type"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "type": {
          "type": "string",
          "enum": ["start", "end", "task", "decision", "parallel", "merge", "delay", "api", "notification"]
        },
        "position": {
          "type": "object",
          "properties": {
            "x": { "type": "number" },
            "y": { "type": "number" }
          }
        },
        "label": { "type": "string" },
        "description": { "type": "string" },
        "config": {},
        "inputs": { "type": "array", "items": { "type": "string" } },
        "outputs": { "type": "array", "items": { "type": "string" } },
        "validation": {
          "type": "object",
          "properties": {
            "valid": { "type": "boolean" },
            "errors": { "type": "array", "items": { "type": "string" } }
          }
        }
      },
      "additionalProperties": false
    },
    "connection": {
      "type": "object",
      "required": ["id", "source", "target"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "source": { "type": "string", "minLength": 1 },
        "source_port": { "type": "string" },
        "target": { "type": "string", "minLength": 1 },
        "target_port": { "type": "string" },
        "condition": { "type": "string" },
        "label": { "type": "string" },
        "seq": { "type": "integer" }
      },
      "additionalProperties": false
    },
    "metadata": {
      "type": "object",
      "properties": {
        "created_at": { "type": "string" },
        "updated_at": { "type": "string" },
        "author": { "type": "string" },
        "tags": { "type": "array", "items": { "type": "string" } }
      },
      "additionalProperties": false
    }
  }
}`

// Codec exports and imports graph documents. Safe for concurrent use.
type Codec struct {
	graphSchema *jsonschema.Schema
}

// NewCodec compiles the embedded graph schema.
func NewCodec() (*Codec, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(graphSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal graph schema: %w", err)
	}
	if err := c.AddResource("https://acso.dev/schemas/graph.json", doc); err != nil {
		return nil, fmt.Errorf("add graph schema resource: %w", err)
	}
	compiled, err := c.Compile("https://acso.dev/schemas/graph.json")
	if err != nil {
		return nil, fmt.Errorf("compile graph schema: %w", err)
	}

	return &Codec{graphSchema: compiled}, nil
}

// Export serializes the graph to indented JSON, the payload the console
// hands to the browser download.
func (c *Codec) Export(g *schema.Graph) ([]byte, error) {
	if g == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "graph is nil")
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "serialize graph").WithCause(err)
	}
	return data, nil
}

// Import parses and schema-validates a graph document. Structural violations
// are reported as VALIDATION_ERROR with per-violation details; deeper
// semantic checks are the validation pipeline's job.
func (c *Codec) Import(data []byte) (*schema.Graph, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(data)))
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "parse graph document: %s", err.Error()).WithCause(err)
	}
	if err := c.graphSchema.Validate(doc); err != nil {
		return nil, toDesignError(err)
	}

	var g schema.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "decode graph document: %s", err.Error()).WithCause(err)
	}
	return &g, nil
}

// toDesignError converts a jsonschema.ValidationError into a DesignError
// with one message per leaf violation.
func toDesignError(err error) *schema.DesignError {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return schema.NewError(schema.ErrCodeValidation, err.Error())
	}

	violations := collectViolations(verr)
	if len(violations) == 0 {
		return schema.NewError(schema.ErrCodeValidation, verr.Error())
	}
	msg := violations[0]
	if len(violations) > 1 {
		msg = fmt.Sprintf("graph document has %d schema violations", len(violations))
	}
	return schema.NewError(schema.ErrCodeValidation, msg).
		WithDetails(map[string]any{"violations": violations})
}

// collectViolations flattens the validation error tree into leaf messages.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, collectViolations(cause)...)
	}
	return out
}
