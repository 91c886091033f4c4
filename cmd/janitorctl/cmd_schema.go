package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/janhq/media-janitor/internal/infrastructure/repository/contentrepo"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Generate JSON schemas for janitor config files",
	}

	var output string
	scanTargetsCmd := &cobra.Command{
		Use:   "scan-targets",
		Short: "Generate the JSON schema for the scan targets file",
		Long: `Generate a JSON schema for the file named by SCAN_TARGETS_FILE.

Examples:
  janitorctl schema scan-targets
  janitorctl schema scan-targets --output scan-targets.schema.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schemaJSON, err := scanTargetsSchema()
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, schemaJSON, 0o644); err != nil {
					return fmt.Errorf("failed to write schema file: %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "JSON schema written to %s\n", output)
				return nil
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(schemaJSON))
			return nil
		},
	}
	scanTargetsCmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	cmd.AddCommand(scanTargetsCmd)
	return cmd
}

func scanTargetsSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schema := reflector.Reflect(&contentrepo.ScanTargetFile{})
	schema.Version = "https://json-schema.org/draft/2020-12/schema"
	schema.Title = "Scan Targets"
	schema.Description = "Tables and columns scanned for media references"

	encoded, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema: %w", err)
	}
	return encoded, nil
}
