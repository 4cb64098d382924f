package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/repeat-complaints/internal/auth"
	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
	"github.com/spec-kit/repeat-complaints/internal/ingest"
	"github.com/spec-kit/repeat-complaints/internal/observability"
	"github.com/spec-kit/repeat-complaints/internal/persistence"
	"github.com/spec-kit/repeat-complaints/internal/repository"
	"github.com/spec-kit/repeat-complaints/internal/service"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "repeatctl",
		Short: "Repeat complaint analysis tools",
		Long:  `Runs repeat complaint analyses against spreadsheet exports or the ticket database and manages API credentials`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			// stdout carries command output
			logger, err = observability.NewLogger(cfg.Logger, "stderr")
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(createAnalyzeCmd())
	rootCmd.AddCommand(createConsensusCmd())
	rootCmd.AddCommand(createHashSecretCmd())
	rootCmd.AddCommand(createTokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createAnalyzeCmd() *cobra.Command {
	var (
		xlsxPath    string
		sheet       string
		reference   string
		strategy    string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run one analysis and print the report as JSON",
		Long:  `Reads the snapshot from --xlsx when given, otherwise from the configured Postgres table`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analysis := cfg.Analysis
			if strategy != "" {
				analysis.Strategy = strategy
			}
			if concurrency > 0 {
				analysis.Concurrency = concurrency
			}
			ref, err := parseReference(reference)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			deps := service.AnalysisDependencies{Logger: logger}
			if xlsxPath == "" {
				pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
				if err != nil {
					return fmt.Errorf("connect postgres: %w", err)
				}
				defer pg.Close()
				if !pg.Enabled() {
					return errors.New("either --xlsx or POSTGRES_DSN is required")
				}
				deps.Source = repository.NewSnapshotRepository(pg.PoolHandle(), cfg.Postgres.SnapshotTable, cfg.Schema.AcceptedAtColumn)
			}

			svc, err := service.NewAnalysisService(analysis, cfg.Schema, deps)
			if err != nil {
				return err
			}

			var report *domain.AnalysisReport
			if xlsxPath != "" {
				loader := ingest.XLSXLoader{
					Sheet:           sheet,
					TimestampColumn: cfg.Schema.AcceptedAtColumn,
					Location:        analysis.Zone(),
					Logger:          logger,
				}
				rows, err := loader.LoadFile(xlsxPath)
				if err != nil {
					return err
				}
				report, err = svc.Analyze(ctx, rows, ref)
				if err != nil {
					return err
				}
			} else {
				report, err = svc.AnalyzeSource(ctx, ref)
				if err != nil {
					return err
				}
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "workbook export to analyse")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name (default first sheet)")
	cmd.Flags().StringVar(&reference, "reference", "", "reference time, RFC3339 (default now)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "consensus strategy: lcs or fuzzy")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "consensus workers")
	return cmd
}

func createConsensusCmd() *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "consensus [address...]",
		Short: "Print the canonical addresses for a list of observations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := service.NewAnalysisService(cfg.Analysis, cfg.Schema, service.AnalysisDependencies{Logger: logger})
			if err != nil {
				return err
			}
			res, err := svc.Consensus(args, strategy)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", "", "lcs, fuzzy or frequency (default configured strategy)")
	return cmd
}

func createHashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret [secret]",
		Short: "Hash a client secret for AUTH_CLIENTS",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashSecret(args[0], cfg.Auth.BcryptCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func createTokenCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "token [client-id]",
		Short: "Issue an access token without a client secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.ClientRole(role)
			if !auth.ValidRole(r) {
				return fmt.Errorf("unknown role %q", role)
			}
			tok, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes).GenerateToken(args[0], r)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), tok)
		},
	}
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAnalyst), "ANALYST or OPERATOR")
	return cmd
}

func parseReference(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	ref, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --reference: %w", err)
	}
	return ref, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
