package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/wu-history-viewer/internal/adapter/wu"
	"github.com/couchcryptid/wu-history-viewer/internal/config"
	"github.com/couchcryptid/wu-history-viewer/internal/domain"
	"github.com/couchcryptid/wu-history-viewer/internal/observability"
	"github.com/couchcryptid/wu-history-viewer/internal/pipeline"
	"github.com/couchcryptid/wu-history-viewer/internal/report"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wuhistory",
		Short:         "Weather Underground station history",
		Long:          "Fetches a station's daily history and prints it normalized, as a table with KPIs or as JSON.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFetchCmd(), newNormalizeCmd())
	return root
}

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <stationId> <YYYY-MM-DD>",
		Short: "Fetch and normalize one station-day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := checkOutput(output); err != nil {
				return err
			}
			date, err := domain.CompactDate(args[1])
			if err != nil {
				return fmt.Errorf("date %q: %w", args[1], err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)
			metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())

			client := wu.NewClient(cfg.WUAPIKey, cfg.WUBaseURL, cfg.WUTimeout, metrics, logger)
			normalizer := domain.NewNormalizer(domain.NewLocalizer(cfg.DisplayTimezone))
			svc := pipeline.NewService(client, normalizer, nil, logger, metrics)

			res, err := svc.Observations(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), output, cfg.DisplayLocale, res)
		},
	}
	cmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <file.json>",
		Short: "Normalize a saved history/all response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if err := checkOutput(output); err != nil {
				return err
			}
			zone, _ := cmd.Flags().GetString("timezone")
			locale, _ := cmd.Flags().GetString("locale")

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			observations, err := domain.NewNormalizer(domain.NewLocalizer(zone)).NormalizeJSON(body)
			if err != nil {
				return err
			}
			res := pipeline.Result{
				Observations: observations,
				Summary:      domain.Summarize(observations),
			}
			return render(cmd.OutOrStdout(), output, locale, res)
		},
	}
	cmd.Flags().StringP("output", "o", outputTable, "Output format (table, json)")
	cmd.Flags().String("timezone", domain.DefaultZone, "IANA zone for the time column")
	cmd.Flags().String("locale", "es", "Locale for number formatting")
	return cmd
}

func checkOutput(output string) error {
	if output != outputTable && output != outputJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", output, outputTable, outputJSON)
	}
	return nil
}

func render(w io.Writer, output, locale string, res pipeline.Result) error {
	if output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	tag, err := report.ParseLocale(locale)
	if err != nil {
		return err
	}
	return report.WriteText(w, report.NewFormatter(tag).Build(res.Observations))
}
