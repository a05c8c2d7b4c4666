package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	fshcompiler "github.com/FHIR/sushi-sub009"
	"github.com/FHIR/sushi-sub009/config"
	"github.com/FHIR/sushi-sub009/engine"
	"github.com/FHIR/sushi-sub009/export"
	"github.com/FHIR/sushi-sub009/fisher"
	"github.com/FHIR/sushi-sub009/loader"
	"github.com/FHIR/sushi-sub009/rules"
)

var buildCmd = &cobra.Command{
	Use:   "build [project-dir]",
	Short: "Compile rule documents into StructureDefinitions",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringP("input", "i", "input", "directory of rule document JSON files")
	buildCmd.Flags().StringP("definitions", "d", "definitions", "directory of base FHIR definitions")
	buildCmd.Flags().StringP("config", "c", "", "config file (default sushi-config.yaml in project dir)")
	buildCmd.Flags().StringP("output", "o", "output", "output directory")
	buildCmd.Flags().Int("workers", 0, "parallel compilations (0 = number of CPUs)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	projectDir := "."
	if len(args) == 1 {
		projectDir = args[0]
	}

	logger := newLogger(cmd)

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = filepath.Join(projectDir, config.DefaultFileName)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	inputDir, _ := cmd.Flags().GetString("input")
	definitionsDir, _ := cmd.Flags().GetString("definitions")
	outputDir, _ := cmd.Flags().GetString("output")
	workers, _ := cmd.Flags().GetInt("workers")
	inputDir = resolveDir(projectDir, inputDir)
	definitionsDir = resolveDir(projectDir, definitionsDir)
	outputDir = resolveDir(projectDir, outputDir)

	opts := fshcompiler.DefaultOptions()
	if workers > 0 {
		opts.Apply(fshcompiler.WithWorkerCount(workers))
	}

	store := fisher.NewMemoryStore(logger)
	ld := loader.New(store, logger)
	loaded, err := ld.LoadAllFromDirectory(definitionsDir)
	if err != nil {
		return fmt.Errorf("loading definitions: %w", err)
	}
	if loaded == 0 {
		return fmt.Errorf("no definitions found under %s", definitionsDir)
	}
	logger.Info().Int("definitions", loaded).Msg("definitions ready")

	resolver := fisher.NewCached(
		fisher.NewChain(store),
		opts.DefinitionCacheSize,
	)

	docs, err := readDocuments(inputDir)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no rule documents found under %s", inputDir)
	}

	eng := engine.New(resolver, opts, logger)
	eng.SetCanonical(cfg.Canonical)

	start := time.Now()
	outcomes := eng.CompileAll(cmd.Context(), docs)
	elapsed := time.Since(start)

	exporter := export.New()
	failures := 0
	for _, outcome := range outcomes {
		printOutcome(outcome)
		if !outcome.Result.Succeeded {
			failures++
			continue
		}
		stampProjectMetadata(outcome, cfg)
		wire := exporter.Export(outcome.Definition)
		path, err := exporter.WriteFile(outputDir, wire)
		if err != nil {
			failures++
			color.Red("  write failed: %v", err)
			continue
		}
		logger.Debug().Str("path", path).Msg("wrote definition")
	}

	printSummary(eng.Stats(), elapsed)
	if failures > 0 {
		return fmt.Errorf("%d of %d artifacts failed", failures, len(outcomes))
	}
	return nil
}

// newLogger builds a console logger honoring the quiet/verbose flags.
func newLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.InfoLevel
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		level = zerolog.ErrorLevel
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

func resolveDir(projectDir, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(projectDir, dir)
}

// readDocuments parses every rule document JSON file under dir. A file may
// hold a single document or an array of documents.
func readDocuments(dir string) ([]*rules.Document, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var docs []*rules.Document
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		if len(data) > 0 && data[0] == '[' {
			batch, err := rules.UnmarshalDocuments(data)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			docs = append(docs, batch...)
			continue
		}
		doc, err := rules.UnmarshalDocument(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// stampProjectMetadata fills artifact fields the rules left unset from the
// project config.
func stampProjectMetadata(outcome engine.Outcome, cfg *config.Config) {
	sd := outcome.Definition
	if sd.Version == "" {
		sd.Version = cfg.Version
	}
	if sd.Status == "" {
		sd.Status = cfg.Status
	}
	if sd.Status == "" {
		sd.Status = "draft"
	}
	if sd.FHIRVersion == "" {
		sd.FHIRVersion = cfg.FHIRVersion
	}
}

// printOutcome renders one artifact's line plus its diagnostics.
func printOutcome(outcome engine.Outcome) {
	name := outcome.Document.Name
	switch {
	case !outcome.Result.Succeeded:
		color.Red("✗ %s", name)
	case outcome.Result.HasErrors():
		color.Yellow("⚠ %s", name)
	default:
		color.Green("✓ %s", name)
	}
	for _, issue := range outcome.Result.Issues {
		if issue.IsError() {
			color.Red("    %s", issue)
		} else if issue.IsWarning() {
			color.Yellow("    %s", issue)
		}
	}
}

// printSummary renders the batch totals.
func printSummary(stats fshcompiler.StatsSnapshot, elapsed time.Duration) {
	fmt.Println()
	bold := color.New(color.Bold)
	bold.Printf("Compiled %d artifact(s) in %s\n", stats.ArtifactsCompiled+stats.ArtifactsFailed, elapsed.Round(time.Millisecond))
	fmt.Printf("  succeeded: %d  failed: %d  rules applied: %d\n",
		stats.ArtifactsCompiled, stats.ArtifactsFailed, stats.RulesApplied)
	if stats.Errors > 0 {
		color.Red("  errors: %d", stats.Errors)
	}
	if stats.Warnings > 0 {
		color.Yellow("  warnings: %d", stats.Warnings)
	}
}
