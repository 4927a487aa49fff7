package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gophersatwork/spdxer"
)

var (
	cfgFile     string
	path        string
	catalogFile string
	verbose     bool
	dryRun      bool
	format      string
	parallel    bool
)

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .spdxer.yml)")
	rootCmd.PersistentFlags().StringVar(&path, "path", ".", "tree to operate on")
	rootCmd.PersistentFlags().StringVar(&catalogFile, "catalog", "", "license catalog file (default is the bundled catalog)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "show what would change without modifying files")
	rootCmd.PersistentFlags().StringVar(&format, "format", "text", "output format (text, json)")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "process files with a worker pool")

	rootCmd.AddCommand(addCmd, changeCmd, removeCmd, verifyCmd, checkCmd, listCmd, extractCmd, watchCmd)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		logger := newLogger()

		info, found := spdxer.GetErrorInfo(err)
		if found {
			logger.Error("command failed", "error", err, "error_type", info.Type)
			if info.File != "" {
				logger.Error("file information", "file", info.File)
			}
			if info.Details != "" {
				logger.Error("additional details", "details", info.Details)
			}
		} else {
			var notFound *spdxer.LicenseNotFoundError
			if errors.As(err, &notFound) {
				logger.Error("unknown license identifier",
					"license", notFound.ID,
					"suggestions", notFound.Suggestions)
			} else {
				logger.Error("command failed", "error", err)
			}
		}

		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spdxer",
	Short: "Manage SPDX license headers in source files",
	Long:  `spdxer adds, replaces, removes and verifies SPDX license-identifier headers across a source tree, preserving each file's encoding and permissions.`,
}

var addCmd = &cobra.Command{
	Use:   "add LICENSE",
	Short: "Add an SPDX header to files that lack one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(func(env *environment) (*spdxer.Report, error) {
			if parallel {
				cp, err := spdxer.NewConcurrentProcessor(env.processor)
				if err != nil {
					return nil, err
				}
				return cp.Add(cmd.Context(), path, args[0], dryRun)
			}
			return env.processor.Add(path, args[0], dryRun)
		})
	},
}

var changeCmd = &cobra.Command{
	Use:   "change LICENSE",
	Short: "Replace the SPDX header in files that have one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(func(env *environment) (*spdxer.Report, error) {
			if parallel {
				cp, err := spdxer.NewConcurrentProcessor(env.processor)
				if err != nil {
					return nil, err
				}
				return cp.Change(cmd.Context(), path, args[0], dryRun)
			}
			return env.processor.Change(path, args[0], dryRun)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the SPDX header from files that have one",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBatch(func(env *environment) (*spdxer.Report, error) {
			return env.processor.Remove(path, dryRun)
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Report files missing an SPDX header",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		report, err := env.processor.Verify(path)
		if err != nil {
			return err
		}
		return printReport(env, report)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify headers and fail when any are missing (for pre-commit hooks)",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		report, err := env.processor.Verify(path)
		if err != nil {
			return err
		}
		if err := printReport(env, report); err != nil {
			return err
		}
		if report.Outcome() == spdxer.OutcomeFailed {
			return fmt.Errorf("%d files are missing SPDX headers", report.Missing())
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list [KEYWORD]",
	Short: "List catalog licenses, optionally filtered by keyword",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}

		keyword := ""
		if len(args) == 1 {
			keyword = args[0]
		}

		fmt.Printf("SPDX version: %s\n", env.catalog.Metadata.SPDXVersion)
		fmt.Printf("Total licenses: %d\n\n", env.catalog.Len())
		for _, entry := range env.catalog.Filter(keyword) {
			flags := ""
			if entry.Deprecated {
				flags += " (deprecated)"
			}
			if entry.OSIApproved {
				flags += " [OSI]"
			}
			if entry.FSFLibre {
				flags += " [FSF]"
			}
			fmt.Printf("- %s%s: %s\n", entry.ID, flags, entry.Name)
		}
		return nil
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract LICENSE",
	Short: "Write the license template text to a LICENSE file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		target, err := spdxer.Extract(env.fs, env.catalog, args[0], path, dryRun)
		if err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("Would extract license to: %s\n", target)
		} else {
			fmt.Printf("Extracted license to: %s\n", target)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the tree and re-verify headers on changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup()
		if err != nil {
			return err
		}
		watch, err := spdxer.NewWatchMode(spdxer.WatchConfig{
			Root:      path,
			Processor: env.processor,
			Logger:    env.logger,
			FS:        env.fs,
		})
		if err != nil {
			return err
		}
		return watch.Start(cmd.Context())
	},
}

type environment struct {
	fs        afero.Fs
	logger    *slog.Logger
	catalog   *spdxer.Catalog
	processor *spdxer.Processor
	formatter spdxer.Formatter
}

func setup() (*environment, error) {
	logger := newLogger()
	fs := afero.NewOsFs()

	cfg, err := spdxer.LoadConfig(fs, path, cfgFile)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		return nil, err
	}
	if catalogFile != "" {
		cfg.CatalogFile = catalogFile
	}

	cache := spdxer.NewCatalogCache(fs)
	catalog, err := cache.Load(cfg.CatalogFile)
	if err != nil {
		logger.Error("failed to load license catalog", "error", err)
		return nil, err
	}

	processor, err := spdxer.NewProcessor(cfg, catalog, logger, fs)
	if err != nil {
		logger.Error("failed to initialize the processor", "error", err)
		return nil, err
	}

	formatter, err := spdxer.NewFormatter(spdxer.OutputFormat(format))
	if err != nil {
		return nil, err
	}

	return &environment{
		fs:        fs,
		logger:    logger,
		catalog:   catalog,
		processor: processor,
		formatter: formatter,
	}, nil
}

func runBatch(run func(env *environment) (*spdxer.Report, error)) error {
	env, err := setup()
	if err != nil {
		return err
	}
	report, err := run(env)
	if err != nil {
		return err
	}
	if err := printReport(env, report); err != nil {
		return err
	}
	if report.Outcome() == spdxer.OutcomeNothingToDo {
		fmt.Println("Nothing to do.")
	}
	return nil
}

func printReport(env *environment, report *spdxer.Report) error {
	out, err := env.formatter.Format(report)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}
