package main

import (
	"encoding/json"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sibyllinesoft/valknut/internal/results"
)

// schemaCommand prints the JSON Schema for MarshalHierarchy's output, so a
// downstream CI tool can validate valknut's JSON before parsing it.
func schemaCommand(c *cli.Context) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results.HierarchySchema())
}
