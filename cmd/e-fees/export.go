package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/newillusions/e-fees-sub005/entities"
)

// exportDocument is the full dataset in one YAML document, suitable for
// backup or for feeding other tooling.
type exportDocument struct {
	Projects  []entities.Project `yaml:"projects"`
	Rfps      []entities.Rfp     `yaml:"rfps"`
	Companies []entities.Company `yaml:"companies"`
	Contacts  []entities.Contact `yaml:"contacts"`
}

func newExportCommand(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export all collections as YAML",
		Long: `Export writes every collection to a single YAML document, to stdout
or to the file given with --output.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			for _, load := range []func() error{
				func() error { return a.projects.Load(ctx) },
				func() error { return a.rfps.Load(ctx) },
				func() error { return a.companies.Load(ctx) },
				func() error { return a.contacts.Load(ctx) },
			} {
				if err := load(); err != nil {
					return err
				}
			}

			doc := exportDocument{
				Projects:  a.projects.State().Items,
				Rfps:      a.rfps.State().Items,
				Companies: a.companies.State().Items,
				Contacts:  a.contacts.State().Items,
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return fmt.Errorf("failed to encode export: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}
