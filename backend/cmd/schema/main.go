package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"roomie/backend/internal/core/domain/entity"
)

// Схемы, которые умеет генерировать команда
var targets = map[string]struct {
	value       interface{}
	title       string
	description string
}{
	"blueprint": {
		value:       new(entity.BlueprintResponse),
		title:       "Roomie Blueprint",
		description: "Orchestrator response: shapes, instances and behaviors to apply to a room",
	},
	"room": {
		value:       new(entity.RoomState),
		title:       "Roomie Room State",
		description: "Room snapshot with live instance transforms",
	},
	"event": {
		value:       new(entity.GameEvent),
		title:       "Roomie Game Event",
		description: "Input event dispatched to behaviors",
	},
}

func main() {
	var outPath, target string
	flag.StringVar(&outPath, "out", "", "path to write the JSON schema")
	flag.StringVar(&target, "type", "blueprint", "schema to generate: blueprint, room or event")
	flag.Parse()

	if outPath == "" {
		fmt.Fprintln(os.Stderr, "--out is required")
		os.Exit(1)
	}

	schema, err := buildSchema(target)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := writeSchema(outPath, schema); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write schema: %v\n", err)
		os.Exit(1)
	}
}

func buildSchema(target string) (*jsonschema.Schema, error) {
	t, ok := targets[target]
	if !ok {
		return nil, fmt.Errorf("unknown schema type %q", target)
	}
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
	}
	schema := reflector.Reflect(t.value)
	schema.Title = t.title
	schema.Description = t.description
	return schema, nil
}

func writeSchema(outPath string, schema *jsonschema.Schema) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create schema directory: %w", err)
	}

	tmpPath := outPath + ".tmp"
	if err := os.WriteFile(tmpPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write temp schema: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("replace schema: %w", err)
	}

	return nil
}
