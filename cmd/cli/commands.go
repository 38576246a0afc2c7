package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/finovo/bankcore/internal/adapter/http/dto"
	postgresRepo "github.com/finovo/bankcore/internal/adapter/repository/postgres"
	"github.com/finovo/bankcore/internal/domain"
	"github.com/finovo/bankcore/internal/infrastructure/auth"
	"github.com/finovo/bankcore/internal/infrastructure/config"
	"github.com/finovo/bankcore/internal/infrastructure/logger"
	"github.com/finovo/bankcore/internal/infrastructure/postgres"
	"github.com/finovo/bankcore/internal/usecase"
)

var bcryptGenerate = bcrypt.GenerateFromPassword

func ledgerCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			var report dto.ConsistencyResponse
			if _, err := newAPIClient(opts).do(cmd.Context(), http.MethodGet, "/api/v1/admin/ledger/consistency", nil, &report,
				http.StatusOK, http.StatusConflict); err != nil {
				return err
			}
			printConsistency(cmd.OutOrStdout(), &report)
			if !report.Consistent {
				return errors.New("consistency check FAILED")
			}
			return nil
		},
	})

	return cmd
}

func printConsistency(w io.Writer, report *dto.ConsistencyResponse) {
	if report.Consistent {
		fmt.Fprintln(w, "Consistency check PASSED")
	} else {
		fmt.Fprintln(w, "Consistency check FAILED")
	}
	fmt.Fprintf(w, "Accounts: %d reconciled of %d\n", report.ReconciledAccounts, report.TotalAccounts)

	if len(report.Discrepancies) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ACCOUNT\tRECORDED\tJOURNAL\tDIFFERENCE")
		for _, d := range report.Discrepancies {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", truncate(d.AccountID, 26), d.RecordedBalance.StringFixed(2), d.CalculatedBalance.StringFixed(2), d.Difference.StringFixed(2))
		}
		_ = tw.Flush()
	}
	for _, id := range report.UnbalancedTransfers {
		fmt.Fprintf(w, "Unbalanced transaction: %s\n", id)
	}
}

func settleCmd(opts *options) *cobra.Command {
	var status, reason string

	cmd := &cobra.Command{
		Use:   "settle <transaction-id>",
		Short: "Settle a pending transaction as completed or failed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != string(domain.StatusCompleted) && status != string(domain.StatusFailed) {
				return fmt.Errorf("--status must be %s or %s", domain.StatusCompleted, domain.StatusFailed)
			}

			var txn dto.TransactionResponse
			if _, err := newAPIClient(opts).do(cmd.Context(), http.MethodPost, "/api/v1/admin/transactions/"+args[0]+"/settle",
				dto.SettleRequest{Status: status, Reason: reason}, &txn, http.StatusOK); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), txn)
		},
	}

	cmd.Flags().StringVar(&status, "status", string(domain.StatusCompleted), "Final status: completed or failed")
	cmd.Flags().StringVar(&reason, "reason", "", "Failure reason recorded on the transaction")
	return cmd
}

func paymentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Scheduled payment operations",
	}

	var asOf string
	runDue := &cobra.Command{
		Use:   "run-due",
		Short: "Execute every scheduled payment that is due",
		RunE: func(cmd *cobra.Command, args []string) error {
			at := time.Now().UTC()
			if asOf != "" {
				parsed, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of: %w", err)
				}
				at = parsed
			}

			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := postgres.NewPoolWithConfig(cmd.Context(), postgres.PoolConfig{
				DatabaseURL:     cfg.DatabaseURL,
				MaxConns:        2,
				MinConns:        1,
				PingTimeout:     cfg.DatabaseTimeout,
				ApplicationName: "bankcore-cli",
			})
			if err != nil {
				return err
			}
			defer pool.Close()

			store := usecase.LedgerStore{
				TxManager:    postgresRepo.NewTxManager(pool),
				Retrier:      postgresRepo.NewRetrier(log),
				Accounts:     postgresRepo.NewAccountRepository(pool),
				Transactions: postgresRepo.NewTransactionRepository(pool),
				Entries:      postgresRepo.NewEntryRepository(pool),
				Payments:     postgresRepo.NewPaymentRepository(pool),
				Outbox:       postgresRepo.NewOutboxRepository(pool),
				Audit:        postgresRepo.NewAuditRepository(pool),
				IDGen:        postgresRepo.NewULIDGenerator(),
			}

			res, err := usecase.NewPaymentUseCase(store, log).ExecuteDuePayments(cmd.Context(), at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "executed=%d failed=%d rescheduled=%d\n", res.Executed, res.Failed, res.Scheduled)
			return nil
		},
	}
	runDue.Flags().StringVar(&asOf, "as-of", "", "Run as if the clock read this RFC3339 time")

	cmd.AddCommand(runDue)
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database schema migrations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := loadConfig()
				if err != nil {
					return err
				}
				return postgres.RunMigrations(cfg.DatabaseURL, log)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the last migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := loadConfig()
				if err != nil {
					return err
				}
				return postgres.RunMigrationsDown(cfg.DatabaseURL, log)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, _, err := loadConfig()
				if err != nil {
					return err
				}
				version, dirty, err := postgres.MigrationVersion(cfg.DatabaseURL)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%v\n", version, dirty)
				return nil
			},
		},
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		role     string
		email    string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Issue an access token signed with JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := domain.Role(role)
			if !r.IsValid() {
				return fmt.Errorf("unknown role %q", role)
			}
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if duration <= 0 {
				duration = cfg.JWTExpiration
			}

			token, err := auth.NewJWTManager(cfg.JWTSecret, duration).Generate(&domain.User{ID: args[0], Email: email, Role: r})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", string(domain.RoleAdmin), "Role claim")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().DurationVar(&duration, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password for seeding users",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := bcryptGenerate([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(hash))
			return nil
		},
	}
}

func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, logger.New(logger.Config{Level: cfg.LogLevel, Format: "console"}), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
