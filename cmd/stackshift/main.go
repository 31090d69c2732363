package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"stackshift/internal/assist"
	"stackshift/internal/backup"
	"stackshift/internal/config"
	"stackshift/internal/engine"
	"stackshift/internal/equiv"
	"stackshift/internal/history"
	"stackshift/internal/lang"
	"stackshift/internal/migration"
	"stackshift/internal/planner"
	"stackshift/internal/postprocess"
	"stackshift/internal/rules"
	"stackshift/internal/transform"
	"stackshift/internal/workspace"
)

var (
	rootCmd = &cobra.Command{
		Use:   "stackshift",
		Short: "AST-driven framework migration tool",
	}
	cfgPath  string
	specPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&specPath, "spec", "s", "migration.yaml", "Path to the migration specification")

	migrateCmd.Flags().StringVarP(&outDir, "out", "o", "", "Directory to write the migrated project to (default \"migrated\")")
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Transform and report without writing any files")
	migrateCmd.Flags().StringVar(&changedSince, "changed-since", "", "Only migrate files changed since the given git ref")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Maximum number of runs to list")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadInputs loads the tool configuration and the migration specification.
func loadInputs() (*config.Config, *migration.Specification, error) {
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	spec, err := migration.LoadSpecification(specPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, spec, nil
}

// buildEngine wires the pipeline from configuration: AI provider,
// equivalence tolerances, backup limit, structure planner, and the
// post-batch steps.
func buildEngine(ctx context.Context, cfg *config.Config, spec *migration.Specification, fsys afero.Fs, root string) *engine.Engine {
	provider, err := assist.NewProvider(ctx, assist.Options{
		Provider: cfg.AI.Provider,
		APIKey:   cfg.AI.APIKey,
		Model:    cfg.AI.Model,
		BaseURL:  cfg.AI.BaseURL,
	})
	if err != nil {
		fmt.Printf("⚠️  Semantic pass disabled: %v\n", err)
		provider = assist.OfflineProvider{}
	}

	checker := equiv.NewChecker(nil)
	if cfg.Equivalence.StructuralTolerance > 0 {
		checker.StructuralTolerance = cfg.Equivalence.StructuralTolerance
	}
	if cfg.Equivalence.ElementTolerance > 0 {
		checker.ElementTolerance = cfg.Equivalence.ElementTolerance
	}

	deps := engine.Deps{
		Rewriter: transform.NewRewriter(nil, nil),
		Checker:  checker,
		Assist:   provider,
		Backups:  backup.NewManager(cfg.Backup.Limit),
		Planner:  planner.ForSpec(spec),
		Fetcher:  workspace.NewFetcher(fsys, root),
		PostProcessors: []engine.PostProcessor{
			postprocess.NewScaffolds(nil),
			postprocess.NewStylesheets(),
			postprocess.NewManifest(),
		},
	}
	return engine.New(deps, engine.Options{
		Concurrency:        cfg.Engine.Concurrency,
		FallbackConfidence: cfg.Engine.FallbackConfidence,
	})
}

var (
	outDir       string
	dryRun       bool
	changedSince string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [path]",
	Short: "Migrate a project to the target framework",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, spec, err := loadInputs()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}

		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}
		out := outDir
		if out == "" {
			out = cfg.Project.Out
		}
		if out == "" {
			out = "migrated"
		}

		fmt.Printf("📂 Migrating %s: %s -> %s\n", root, spec.Source.Framework, spec.Target.Framework)

		// 1. Crawl the project
		fsys := afero.NewOsFs()
		cr := workspace.NewCrawler(fsys, lang.DefaultRegistry())
		files, err := cr.Collect(root)
		if err != nil {
			log.Fatalf("Failed to scan project: %v", err)
		}

		// 2. Optionally narrow to git-changed files
		if changedSince != "" {
			changed, cerr := workspace.ChangedPaths(root, changedSince)
			if cerr != nil {
				log.Fatalf("Failed to get git changes: %v", cerr)
			}
			files = workspace.FilterChanged(files, changed)
			fmt.Printf("📝 Limited to %d files changed since %s.\n", len(files), changedSince)
		}

		if len(files) == 0 {
			fmt.Println("✅ Nothing to migrate.")
			return
		}
		fmt.Printf("🔍 Found %d files.\n", len(files))

		// 3. Transform
		eng := buildEngine(ctx, cfg, spec, fsys, root)

		fmt.Println("🚀 Transforming...")
		start := time.Now()
		batch, err := eng.TransformBatch(ctx, spec, files, func(stage string, current, total int, message string) {
			fmt.Printf("  [%d/%d] %s\n", current, total, message)
		})
		if err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Printf("✅ Transformed %d files in %v.\n", batch.Stats.TotalFiles, time.Since(start))

		printPlan(batch.PlanActions)

		if dryRun {
			printSummary(batch)
			fmt.Println("🔎 Dry run, nothing written.")
			return
		}

		// 4. Write the migrated tree
		outputs, deleted := outputsOf(batch)
		writer := workspace.NewWriter(fsys)
		if err := writer.Apply(out, outputs); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		if err := writer.Remove(out, deleted); err != nil {
			log.Fatalf("Failed to remove planned deletions: %v", err)
		}

		// 5. Record the run
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			log.Printf("⚠️  History disabled: %v", err)
		} else {
			defer store.Close()
			if err := store.SaveRun(ctx, spec, batch); err != nil {
				log.Printf("⚠️  Failed to record run: %v", err)
			}
		}

		printSummary(batch)
		fmt.Printf("🎉 Migration complete! Output: %s (job %s)\n", out, batch.JobID)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Validate a project against the migration rule set",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, spec, err := loadInputs()
		if err != nil {
			log.Fatalf("Setup failed: %v", err)
		}
		root := cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		re := rules.NewEngine(nil, nil)
		if err := re.LoadRules(spec); err != nil {
			log.Fatalf("Rule set rejected: %v", err)
		}
		for _, finding := range migration.SanityCheck(spec) {
			fmt.Printf("  ⚠️  spec: %s\n", finding)
		}

		fmt.Printf("📂 Validating %s against %s rules\n", root, spec.Target.Framework)

		langs := lang.DefaultRegistry()
		cr := workspace.NewCrawler(afero.NewOsFs(), langs)
		files, err := cr.Collect(root)
		if err != nil {
			log.Fatalf("Failed to scan project: %v", err)
		}

		var violations []rules.Violation
		legacyFiles := 0
		for _, f := range files {
			if langs.Supports(f.Path) {
				v := re.ValidateAgainstRules(ctx, f.Content, f.Path)
				violations = append(violations, v.Violations...)
			} else if re.HasLegacyReferences(f.Content) {
				legacyFiles++
				fmt.Printf("  ⚠️  %s still references the source framework\n", f.Path)
			}
		}

		report := rules.GenerateViolationReport(violations)
		printReport(report)

		if report.Errors > 0 {
			fmt.Printf("❌ %d blocking violations in %d files.\n", report.Errors, len(report.ByFile))
			os.Exit(1)
		}
		fmt.Printf("✅ No blocking violations (%d warnings, %d files with legacy references).\n",
			report.Warnings, legacyFiles)
	},
}

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [jobID]",
	Short: "List recorded migration runs, or show one run's file results",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := config.LoadConfig(cfgPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		store, err := history.NewStore(cfg.History.Path)
		if err != nil {
			log.Fatalf("Failed to open history database: %v", err)
		}
		defer store.Close()

		if len(args) == 1 {
			results, err := store.RunResults(ctx, args[0])
			if err != nil {
				log.Fatalf("Failed to load results: %v", err)
			}
			if len(results) == 0 {
				fmt.Printf("No results recorded for job %s.\n", args[0])
				return
			}
			for _, r := range results {
				marker := "✅"
				if r.RequiresReview {
					marker = "⚠️ "
				}
				fmt.Printf("%s %s -> %s (confidence %.1f, %d violations)\n",
					marker, r.Path, r.NewPath, r.Confidence, len(r.Violations))
			}
			return
		}

		runs, err := store.ListRuns(ctx, historyLimit)
		if err != nil {
			log.Fatalf("Failed to list runs: %v", err)
		}
		if len(runs) == 0 {
			fmt.Println("No migration runs recorded yet.")
			return
		}
		for _, r := range runs {
			fmt.Printf("🗂  %s  %s  %s -> %s  %d files  avg %.1f  %d review\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.SourceFramework, r.TargetFramework,
				r.Stats.TotalFiles, r.Stats.AverageConfidence, r.Stats.RequiresReview)
		}
	},
}

// outputsOf splits a batch into files to write and planned deletions.
// Results for files the plan deletes are dropped instead of written.
func outputsOf(batch *engine.BatchResult) (map[string]string, []string) {
	deleteSet := make(map[string]bool)
	var deleted []string
	for _, a := range batch.PlanActions {
		if a.Action == migration.PlanDelete && a.OriginalPath != "" {
			deleteSet[a.OriginalPath] = true
			deleted = append(deleted, a.OriginalPath)
		}
	}

	outputs := make(map[string]string, len(batch.Results))
	for path, r := range batch.Results {
		if deleteSet[path] {
			continue
		}
		outputs[path] = r.Code
	}
	return outputs, deleted
}

func printPlan(actions []migration.PlanAction) {
	if len(actions) == 0 {
		return
	}
	fmt.Printf("🗺  Structure plan (%d actions):\n", len(actions))
	for _, a := range actions {
		switch a.Action {
		case migration.PlanMove:
			fmt.Printf("  move:   %s -> %s\n", a.OriginalPath, a.NewPath)
		case migration.PlanCreate:
			fmt.Printf("  create: %s\n", a.NewPath)
		case migration.PlanDelete:
			if reason := a.Metadata["reason"]; reason != "" {
				fmt.Printf("  delete: %s (%s)\n", a.OriginalPath, reason)
			} else {
				fmt.Printf("  delete: %s\n", a.OriginalPath)
			}
		}
	}
}

func printSummary(batch *engine.BatchResult) {
	stats := batch.Stats
	fmt.Printf("📊 %d files, %d successful, %d need review, %d low confidence (avg %.1f)\n",
		stats.TotalFiles, stats.Successful, stats.RequiresReview, stats.FilesWithErrors,
		stats.AverageConfidence)

	paths := make([]string, 0, len(batch.Results))
	for p := range batch.Results {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var violations []rules.Violation
	for _, p := range paths {
		r := batch.Results[p]
		violations = append(violations, r.Violations...)
		if r.Metadata.RequiresReview {
			fmt.Printf("  ⚠️  %s (confidence %.1f)\n", p, r.Metadata.Confidence)
		}
	}
	printReport(rules.GenerateViolationReport(violations))

	for _, w := range batch.Warnings {
		fmt.Printf("  ⚠️  %s\n", w)
	}
}

func printReport(report rules.Report) {
	if report.Total == 0 {
		return
	}
	fmt.Printf("🔍 %d violations: %d errors, %d warnings (%d auto-fixable)\n",
		report.Total, report.Errors, report.Warnings, report.AutoFixable)

	paths := make([]string, 0, len(report.ByFile))
	for p := range report.ByFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		fmt.Printf("  %s\n", p)
		for _, v := range report.ByFile[p] {
			fmt.Printf("    line %d: [%s] %s\n", v.Line, v.Severity, v.Message)
			if v.Suggestion != "" {
				fmt.Printf("      ↳ %s\n", v.Suggestion)
			}
		}
	}
}
