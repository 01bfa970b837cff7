// Command cowin-alert-bot runs the Telegram vaccination slot alert bot.
//
// Usage:
//
//	cowin-alert-bot                                 # run the bot (env config)
//	cowin-alert-bot check --pincode 560001 --age 18 # one-shot lookup to stdout
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ykvlv/cowin-alert-bot/internal/app"
	"github.com/ykvlv/cowin-alert-bot/internal/config"
	"github.com/ykvlv/cowin-alert-bot/internal/cowin"
	"github.com/ykvlv/cowin-alert-bot/internal/domain"
	"github.com/ykvlv/cowin-alert-bot/internal/format"
	"github.com/ykvlv/cowin-alert-bot/internal/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "cowin-alert-bot",
		Short:         "Telegram bot that alerts users about open CoWIN vaccination slots",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBot(cmd.Context())
		},
	}
	root.AddCommand(checkCmd())

	if err := root.ExecuteContext(context.Background()); err != nil {
		// We intentionally ignore write errors to avoid shadowing the real cause.
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}
}

func runBot(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	// Ensure logger flush; ignore sync error (common on some platforms).
	defer func() { _ = log.Sync() }()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("app init failed", zap.Error(err))
		return err
	}
	if err := application.Run(ctx); err != nil {
		log.Error("app run failed", zap.Error(err))
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// check command
// --------------------------------------------------------------------------

func checkCmd() *cobra.Command {
	var (
		pincode string
		age     string
		baseURL string
		tz      string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fetch open slots for a pincode and print them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pin, err := domain.ParsePincode(pincode)
			if err != nil {
				return err
			}
			pref, err := domain.ParseAgePreference(age)
			if err != nil {
				return err
			}
			loc, err := time.LoadLocation(tz)
			if err != nil {
				return fmt.Errorf("timezone: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			client := cowin.NewClient(cowin.Options{BaseURL: baseURL, Timeout: timeout}, zap.NewNop())
			centers, err := client.FetchCenters(ctx, pin, cowin.Today(time.Now(), loc))
			switch {
			case errors.Is(err, cowin.ErrRateLimited):
				return fmt.Errorf("provider is rate limiting us, try again later: %w", err)
			case err != nil:
				return err
			}

			matched := domain.FilterByAge(pref, domain.FilterAvailable(centers))
			out := cmd.OutOrStdout()
			if len(matched) == 0 {
				_, err = fmt.Fprintln(out, format.NoSlots(pin, pref))
				return err
			}
			_, err = fmt.Fprintln(out, format.Listing(pin, pref, matched))
			return err
		},
	}
	cmd.Flags().StringVar(&pincode, "pincode", "", "6 digit pincode")
	cmd.Flags().StringVar(&age, "age", "any", "age group: 18, 45 or any")
	cmd.Flags().StringVar(&baseURL, "base-url", cowin.DefaultBaseURL, "CoWIN API base URL")
	cmd.Flags().StringVar(&tz, "tz", "Asia/Kolkata", "provider timezone")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	_ = cmd.MarkFlagRequired("pincode")
	return cmd
}
