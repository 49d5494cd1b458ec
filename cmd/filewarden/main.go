package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"filewarden/internal/cache"
	"filewarden/internal/config"
	"filewarden/internal/definitions"
	"filewarden/internal/engine"
	"filewarden/internal/filesystem"
	"filewarden/internal/report"
	"filewarden/internal/scanner"
	"filewarden/internal/vault"
	"filewarden/pkg/models"
)

// Exit codes of the command surface
const (
	exitOK          = 0
	exitThreats     = 1
	exitOperational = 2
	exitNotFound    = 3
)

var (
	version  = "0.1.0"
	logger   *zap.Logger
	verbose  bool
	exitCode = exitOK
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "filewarden",
		Short: "Filewarden - Static file-threat detector with quarantine",
		Long: `Batch, on-demand scanner that classifies files as clean, malicious, or
suspicious using hash signatures and entropy/pattern heuristics, and isolates
detections in a tamper-evident quarantine vault.`,
		Version: version,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(updateCmd())
	rootCmd.AddCommand(quarantineCmd())
	rootCmd.AddCommand(logsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if exitCode == exitOK {
			exitCode = exitOperational
		}
	}
	os.Exit(exitCode)
}

// initLogger initializes the global logger based on the verbose flag
func initLogger() error {
	var err error
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.Config{
			Level:            zap.NewAtomicLevelAt(zapcore.ErrorLevel),
			Encoding:         "json",
			OutputPaths:      []string{"stderr"},
			ErrorOutputPaths: []string{"stderr"},
			EncoderConfig:    zap.NewProductionEncoderConfig(),
		}
		logger, err = cfg.Build()
	}
	return err
}

// scanCmd creates the scan command
func scanCmd() *cobra.Command {
	var (
		workers          int
		maxSize          string
		fileTimeout      time.Duration
		entropyThreshold float64
		definitionsPath  string
		vaultDir         string
		logsDir          string
		jsonOut          bool
	)

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a file or directory for threats",
		Long:  `Recursively scan a path; known-malicious and suspicious files are moved into the quarantine vault.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			if maxSize != "" {
				cfg.MaxSize = maxSize
			}
			if fileTimeout > 0 {
				cfg.FileTimeout = fileTimeout
			}
			if entropyThreshold > 0 {
				cfg.EntropyThreshold = entropyThreshold
			}
			if definitionsPath != "" {
				cfg.DefinitionsPath = definitionsPath
			}
			if vaultDir != "" {
				cfg.VaultDir = vaultDir
			}
			if logsDir != "" {
				cfg.LogsDir = logsDir
			}

			// Missing or corrupt definitions are fatal: never scan with an
			// empty database and report false "clean" results.
			mgr, err := definitions.NewManager(cfg.DefinitionsPath, logger)
			if err != nil {
				return err
			}

			emitter, err := newJSONLEmitter(cfg.LogsDir)
			if err != nil {
				return err
			}
			defer emitter.Close()

			v, err := vault.Open(cfg.VaultDir, emitter, logger)
			if err != nil {
				return err
			}
			defer v.Close()

			eng := engine.New(engine.Options{
				EntropyThreshold: cfg.EntropyThreshold,
				EntropyWindow:    int(filesystem.ParseSize(cfg.EntropyWindow)),
			}, logger)

			sc := scanner.New(cfg, eng, cache.New(), v, emitter, logger)

			// Ctrl-C aborts the scan; the partial report is still printed,
			// flagged as cancelled.
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rep, err := sc.Scan(ctx, args[0], mgr.Active())
			if err != nil {
				return err
			}

			gen := report.NewGenerator()
			if jsonOut {
				data, err := gen.JSON(rep)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(gen.Text(rep))
			}

			if rep.ThreatsFound() > 0 || rep.Errors > 0 {
				exitCode = exitThreats
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Number of worker goroutines (default: CPU count)")
	cmd.Flags().StringVar(&maxSize, "max-size", "", "Maximum file size to scan (e.g. 256M)")
	cmd.Flags().DurationVar(&fileTimeout, "file-timeout", 0, "Per-file read+hash timeout (0 disables)")
	cmd.Flags().Float64Var(&entropyThreshold, "entropy-threshold", 0, "Suspicious entropy threshold [0,8]")
	cmd.Flags().StringVar(&definitionsPath, "definitions", "", "Path to definition YAML files")
	cmd.Flags().StringVar(&vaultDir, "vault", "", "Quarantine vault directory")
	cmd.Flags().StringVar(&logsDir, "logs", "", "Event log directory")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")

	return cmd
}

// updateCmd creates the update command
func updateCmd() *cobra.Command {
	var definitionsPath string

	cmd := &cobra.Command{
		Use:   "update [ref]",
		Short: "Validate and install a new definition snapshot",
		Long:  `Load definitions from ref (a YAML file or directory), validate them, and install them as the active definition set.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if definitionsPath != "" {
				cfg.DefinitionsPath = definitionsPath
			}

			// Validate before touching the installed set
			set, err := definitions.NewLoader(args[0]).Load()
			if err != nil {
				return err
			}

			if err := installDefinitions(args[0], cfg.DefinitionsPath); err != nil {
				return err
			}

			fmt.Printf("Definitions updated to version %s (%d signatures)\n", set.Version(), set.Len())
			return nil
		},
	}

	cmd.Flags().StringVar(&definitionsPath, "definitions", "", "Install destination (default: configured definitions path)")

	return cmd
}

// installDefinitions copies validated YAML definition files from ref into
// the configured definitions directory
func installDefinitions(ref, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create definitions directory %s: %w", dest, err)
	}

	info, err := os.Stat(ref)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return filesystem.CopyFile(ref, filepath.Join(dest, filepath.Base(ref)))
	}

	entries, err := os.ReadDir(ref)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := filesystem.CopyFile(filepath.Join(ref, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// quarantineCmd creates the quarantine command group
func quarantineCmd() *cobra.Command {
	var vaultDir, logsDir string

	cmd := &cobra.Command{
		Use:   "quarantine",
		Short: "Manage quarantined files",
	}

	cmd.PersistentFlags().StringVar(&vaultDir, "vault", "", "Quarantine vault directory")
	cmd.PersistentFlags().StringVar(&logsDir, "logs", "", "Event log directory")

	openVault := func() (*vault.Vault, func(), error) {
		if err := initLogger(); err != nil {
			return nil, nil, err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, nil, err
		}
		if vaultDir != "" {
			cfg.VaultDir = vaultDir
		}
		if logsDir != "" {
			cfg.LogsDir = logsDir
		}

		emitter, err := newJSONLEmitter(cfg.LogsDir)
		if err != nil {
			return nil, nil, err
		}

		v, err := vault.Open(cfg.VaultDir, emitter, logger)
		if err != nil {
			emitter.Close()
			return nil, nil, err
		}

		cleanup := func() {
			v.Close()
			emitter.Close()
			logger.Sync()
		}
		return v, cleanup, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all quarantine records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cleanup, err := openVault()
			if err != nil {
				return err
			}
			defer cleanup()

			count := 0
			for record := range v.List() {
				count++
				fmt.Printf("%s  %-8s  %s\n", record.ID, record.Status, record.OriginalPath)
				fmt.Printf("%36s  quarantined %s: %s\n", "",
					record.QuarantinedAt.Format("2006-01-02 15:04:05"), record.Reason)
			}
			if count == 0 {
				fmt.Println("Quarantine is empty.")
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "restore [idOrPath]",
		Short: "Restore a quarantined file to its original path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cleanup, err := openVault()
			if err != nil {
				return err
			}
			defer cleanup()

			record, err := v.Restore(args[0])
			if err != nil {
				if errors.Is(err, vault.ErrNotFound) {
					exitCode = exitNotFound
				}
				return err
			}
			fmt.Printf("Restored %s -> %s\n", record.ID, record.OriginalPath)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [idOrPath]",
		Short: "Permanently erase a quarantined file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, cleanup, err := openVault()
			if err != nil {
				return err
			}
			defer cleanup()

			record, err := v.Delete(args[0])
			if err != nil {
				if errors.Is(err, vault.ErrNotFound) {
					exitCode = exitNotFound
				}
				return err
			}
			fmt.Printf("Deleted %s (%s)\n", record.ID, record.OriginalPath)
			return nil
		},
	})

	return cmd
}

// logsCmd creates the logs command
func logsCmd() *cobra.Command {
	var (
		logsDir string
		tail    int
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent scan and quarantine events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initLogger(); err != nil {
				return err
			}
			defer logger.Sync()

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if logsDir != "" {
				cfg.LogsDir = logsDir
			}

			events, err := readRecentEvents(cfg.LogsDir, tail)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No events logged yet.")
				return nil
			}

			for _, event := range events {
				fmt.Print(formatEvent(event))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&logsDir, "logs", "", "Event log directory")
	cmd.Flags().IntVarP(&tail, "tail", "n", 50, "Number of recent events to show")

	return cmd
}

// formatEvent renders one event as a single display line
func formatEvent(event models.Event) string {
	ts := event.Timestamp.Format("2006-01-02 15:04:05")

	switch event.Kind {
	case models.EventFileVerdict:
		if event.Detail != "" {
			return fmt.Sprintf("%s  %-16s  %-10s  %s (%s)\n", ts, event.Kind, event.Verdict, event.Path, event.Detail)
		}
		return fmt.Sprintf("%s  %-16s  %-10s  %s\n", ts, event.Kind, event.Verdict, event.Path)
	case models.EventQuarantined, models.EventRestored, models.EventDeleted:
		id := ""
		if event.Record != nil {
			id = event.Record.ID.String()
		}
		return fmt.Sprintf("%s  %-16s  %s  %s\n", ts, event.Kind, id, event.Path)
	default:
		return fmt.Sprintf("%s  %-16s  %s\n", ts, event.Kind, event.Path)
	}
}
