// Command generate-schema emits a JSON schema for the ioqueued
// configuration file, suitable for editor completion and validation.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/luzhanping/ioqueued/pkg/config"
)

func main() {
	output := flag.String("output", "config.schema.json", "Output path for the generated schema")
	flag.Parse()

	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}

	schema := reflector.Reflect(&config.Config{})
	schema.Title = "ioqueued configuration"
	schema.Description = "Configuration schema for the ioqueued I/O scheduling daemon"
	schema.Version = "https://json-schema.org/draft/2020-12/schema"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal schema: %v", err)
	}

	if err := os.WriteFile(*output, data, 0o644); err != nil {
		log.Fatalf("Failed to write schema: %v", err)
	}

	log.Printf("Schema written to %s", *output)
}
