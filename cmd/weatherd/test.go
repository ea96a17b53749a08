package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/weather-daemon/internal/schema"
)

var validateArtifact bool

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run exactly one fetch cycle and exit",
	Long:  "Run a single fetch-normalize-publish cycle. Exits 0 when a document was published and 1 otherwise.",
	Args:  cobra.NoArgs,
	RunE:  runTest,
}

func init() {
	testCmd.Flags().BoolVar(&validateArtifact, "validate", false, "check the published artifact against the JSON Schema")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, _ []string) error {
	d, err := newDaemon(cmd.Context())
	if err != nil {
		return err
	}
	defer d.close()

	if err := d.pipeline.RunOnce(cmd.Context()); err != nil {
		return fmt.Errorf("test cycle failed: %w", err)
	}

	if validateArtifact {
		if err := schema.ValidateFile(d.publisher.Path()); err != nil {
			return fmt.Errorf("published artifact: %w", err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", d.publisher.Path())
	return nil
}

