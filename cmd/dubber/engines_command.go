package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dubber/internal/acquire"
	"dubber/internal/deps"
	"dubber/internal/engine"
	"dubber/internal/extract"
	"dubber/internal/mux"
	"dubber/internal/synthesize"
	"dubber/internal/transcribe"
	"dubber/internal/translate"
)

func newEnginesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List pipeline engines and external tool availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, 16)
			for _, desc := range allDescriptors() {
				kind := "local"
				if desc.Hosted {
					kind = "hosted"
				}
				rows = append(rows, []string{
					string(desc.Role),
					desc.Name,
					kind,
					capabilityList(desc.Requires),
					desc.Summary,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Stage", "Engine", "Kind", "Requires", "Summary"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))

			toolRows := make([][]string, 0, 8)
			for _, status := range deps.CheckBinaries(deps.ForConfig(cfg)) {
				detail := status.Detail
				if status.Available {
					detail = status.Command
				}
				toolRows = append(toolRows, []string{
					status.Name,
					yesNo(status.Available),
					yesNo(!status.Optional),
					detail,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), renderTable(
				[]string{"Tool", "Found", "Required", "Detail"},
				toolRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

// allDescriptors concatenates every stage's engine chain in pipeline order.
func allDescriptors() []engine.Descriptor {
	var out []engine.Descriptor
	out = append(out, acquire.Descriptors()...)
	out = append(out, extract.Descriptors()...)
	out = append(out, transcribe.Descriptors()...)
	out = append(out, translate.Descriptors()...)
	out = append(out, synthesize.Descriptors()...)
	out = append(out, mux.Descriptors()...)
	return out
}

func capabilityList(caps []engine.Capability) string {
	if len(caps) == 0 {
		return "-"
	}
	names := make([]string, 0, len(caps))
	for _, capability := range caps {
		names = append(names, string(capability))
	}
	return strings.Join(names, ", ")
}
