// Command gofsh compiles declarative profiling rule documents against FHIR
// definitions and writes the resulting StructureDefinitions.
package main

import (
	"os"

	"github.com/spf13/cobra"

	fshcompiler "github.com/FHIR/sushi-sub009"
)

var rootCmd = &cobra.Command{
	Use:   "gofsh",
	Short: "FHIR profiling rule compiler",
	Long:  `gofsh compiles rule documents into FHIR R4 StructureDefinitions`,
}

func main() {
	rootCmd.Version = fshcompiler.Version

	rootCmd.AddCommand(buildCmd)

	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("verbose", false, "show per-definition progress")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
