package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"orchestra/internal/adapters/export"
	web "orchestra/internal/adapters/http"
	"orchestra/internal/adapters/identity"
	"orchestra/internal/adapters/storage"
	memberStore "orchestra/internal/adapters/storage/member"
	"orchestra/internal/application/orchestrators"
	"orchestra/internal/domain/calendar"
)

func seedInstruments(ctx context.Context) (int, error) {
	return orchestrators.ExecuteSeedInstruments(ctx, orchestrators.SeedInstrumentsDeps{
		InstrumentStore: app.stores.InstrumentStore,
		GenerateID:      uuid.NewString,
	})
}

// newVerifier prefers the identity provider's key set and falls back to the
// shared secret.
func newVerifier() identity.Verifier {
	id := app.cfg.Identity
	if id.JWKSURL != "" {
		return identity.NewJWKSVerifier(identity.JWKSConfig{
			URL:      id.JWKSURL,
			Issuer:   id.Issuer,
			Audience: id.Audience,
			Refresh:  id.Refresh,
		})
	}
	if app.cfg.IsProduction() {
		app.logger.Warn("startup_event", zap.String("event", "hmac_identity_in_production"))
	}
	return identity.NewHMACVerifier(id.HMACSecret, id.Issuer, id.Audience)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := seedInstruments(app.ctx); err != nil {
				return fmt.Errorf("failed to seed instruments: %w", err)
			}

			handler, err := web.NewMux(app.cfg, app.stores, app.collector, newVerifier())
			if err != nil {
				return err
			}
			server := &http.Server{
				Addr:         app.cfg.Addr,
				Handler:      handler,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				app.logger.Info("startup_event",
					zap.String("event", "listening"),
					zap.String("version", version),
					zap.String("addr", app.cfg.Addr),
					zap.String("env", app.cfg.Env),
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case err := <-errCh:
				return fmt.Errorf("server failed: %w", err)
			case <-quit:
			}

			app.logger.Info("shutdown_event", zap.String("event", "draining"))
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}
			app.logger.Info("shutdown_event", zap.String("event", "stopped"))
			return nil
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the default instrument list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := seedInstruments(app.ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d instruments created\n", created)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export schedules or the roster",
	}
	cmd.AddCommand(exportICSCmd())
	cmd.AddCommand(exportRosterCmd())
	return cmd
}

func exportICSCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "ics <memberId>",
		Short: "Write a member's availability as iCalendar to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.stores.ScheduleStore.GetByMemberID(app.ctx, args[0])
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no schedule saved for %s", args[0])
				}
				return err
			}
			loc := app.cfg.Location()
			now := time.Now().In(loc)

			start := calendar.WeekStart(now)
			if from != "" {
				if start, err = calendar.ParseISODate(from); err != nil {
					return fmt.Errorf("--from: %w", err)
				}
			}
			end := start.AddDate(0, 0, 90)
			if to != "" {
				if end, err = calendar.ParseISODate(to); err != nil {
					return fmt.Errorf("--to: %w", err)
				}
			}

			body, err := export.ScheduleCalendar(s, start, end, now)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), body)
			return err
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date (YYYY-MM-DD), defaults to this week's Monday")
	cmd.Flags().StringVar(&to, "to", "", "last date (YYYY-MM-DD), defaults to 90 days after --from")
	return cmd
}

func exportRosterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "roster <file.xlsx>",
		Short: "Write the member roster as a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			members, err := app.stores.MemberStore.List(app.ctx, memberStore.ListFilter{})
			if err != nil {
				return err
			}
			instruments, err := app.stores.InstrumentStore.List(app.ctx)
			if err != nil {
				return err
			}
			data, err := export.Roster(members, instruments)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("failed to write roster: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d members written to %s\n", len(members), args[0])
			return nil
		},
	}
}

func importCmd() *cobra.Command {
	var dryRun, update bool
	cmd := &cobra.Command{
		Use:   "import <roster.csv>",
		Short: "Create or update members from a roster CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			result, err := orchestrators.ExecuteImportMembers(app.ctx, orchestrators.ImportMembersInput{
				Reader:     f,
				ActorID:    "cli",
				DryRun:     dryRun,
				UpdateMode: update,
			}, orchestrators.ImportMembersDeps{
				MemberStore: app.stores.MemberStore,
				GenerateID:  uuid.NewString,
				Now:         time.Now,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d rows: %d created, %d updated, %d skipped\n", result.Total, result.Created, result.Updated, result.Skipped)
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  row %d: %s\n", e.Row, e.Message)
			}
			if dryRun {
				fmt.Fprintln(out, "dry run, nothing written")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")
	cmd.Flags().BoolVar(&update, "update", false, "overwrite members matched by id or email")
	return cmd
}

// tokenCmd issues a development bearer token signed with the HMAC secret.
func tokenCmd() *cobra.Command {
	var email, name string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <uid>",
		Short: "Issue a development bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := app.cfg.Identity
			if app.cfg.IsProduction() {
				return errors.New("token issuing is disabled in production")
			}
			if id.HMACSecret == "" {
				return errors.New("identity.hmacSecret is not configured")
			}
			v := identity.NewHMACVerifier(id.HMACSecret, id.Issuer, id.Audience)
			tok, err := v.Issue(identity.Principal{UID: args[0], Email: email, DisplayName: name}, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&name, "name", "", "display name claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
