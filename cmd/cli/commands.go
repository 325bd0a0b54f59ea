package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"forecast-portal/internal/api"
	"forecast-portal/internal/config"
	"forecast-portal/internal/data"
	"forecast-portal/internal/journal"
	"forecast-portal/internal/proxy"
	"forecast-portal/internal/smoke"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fetchMetric  string
	fetchPeriods int
	fetchMethod  string
	fetchQuery   map[string]string
	fetchOut     string

	renderBase string
	renderOut  string

	journalFeature string
	journalLimit   int
	journalCSV     string

	smokeBin      string
	smokeDebugger string

	transformOut string
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "List configured dashboards",
	Args:  cobra.NoArgs,
	RunE:  runFeatures,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [feature]",
	Short: "Relay one feature's upstream request and print the proxy response",
	Args:  cobra.ExactArgs(1),
	RunE:  runFetch,
}

var renderCmd = &cobra.Command{
	Use:   "render [feature]",
	Short: "Render a dashboard shell with resolved assets and injected config",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe every feature's upstream endpoint",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show recent proxy exchanges from the journal",
	Args:  cobra.NoArgs,
	RunE:  runJournal,
}

var lintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Check every dashboard shell against its configured assets",
	Args:  cobra.NoArgs,
	RunE:  runLint,
}

var transformCmd = &cobra.Command{
	Use:   "transform [payload.json]",
	Short: "Apply the forecast field renaming to a saved upstream payload",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransform,
}

var smokeCmd = &cobra.Command{
	Use:   "smoke [dashboard-url]",
	Short: "Load a served dashboard in headless Chrome and report its state",
	Args:  cobra.ExactArgs(1),
	RunE:  runSmoke,
}

// withDeps loads config, builds the shared dependencies and runs fn.
func withDeps(fn func(ctx context.Context, deps api.Deps) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	deps, closeDeps, err := api.BuildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDeps(); err != nil {
			logger.Warn("closing dependencies", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return fn(ctx, deps)
}

func runFeatures(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tTITLE\tUPSTREAM\tTRANSFORM")
	for _, f := range cfg.Features {
		transform := f.Transform
		if transform == "" {
			transform = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\n", f.Slug, f.Title, f.UpstreamBase(cfg.Upstream), f.UpstreamPath, transform)
	}
	return w.Flush()
}

func runFetch(cmd *cobra.Command, args []string) error {
	return withDeps(func(ctx context.Context, deps api.Deps) error {
		feature, ok := deps.Config.Feature(args[0])
		if !ok {
			return fmt.Errorf("unknown feature %q", args[0])
		}
		query := url.Values{}
		for k, v := range fetchQuery {
			query.Set(k, v)
		}
		params := proxy.ForecastParams{Metric: fetchMetric, Method: fetchMethod}
		if cmd.Flags().Changed("periods") {
			periods := fetchPeriods
			params.Periods = &periods
		}
		res := deps.Relay.Do(ctx, feature, proxy.Request{
			Forecast: params,
			Query:    query,
		})
		entry := journal.Entry{
			Feature:     feature.Slug,
			Method:      "CLI",
			UpstreamURL: res.UpstreamURL,
			StatusCode:  res.StatusCode,
			Outcome:     res.Outcome,
			Cached:      res.Cached,
			Duration:    res.Duration.Milliseconds(),
		}
		if !res.Success() && res.Err != nil {
			entry.Detail = res.Err.Error()
		}
		if err := deps.Journal.Record(ctx, entry); err != nil {
			logger.Warn("journal write failed", zap.Error(err))
		}
		logger.Info("fetched",
			zap.String("feature", feature.Slug),
			zap.String("upstream", res.UpstreamURL),
			zap.Int("status", res.StatusCode),
			zap.Duration("duration", res.Duration),
		)

		if fetchOut != "" {
			if err := data.SavePayloadFile(fetchOut, res.Body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (status %d)\n", fetchOut, res.StatusCode)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), string(res.Body))
		}
		if !res.Success() {
			return fmt.Errorf("%s: status %d (%s)", feature.Slug, res.StatusCode, res.Outcome)
		}
		return nil
	})
}

func runRender(cmd *cobra.Command, args []string) error {
	return withDeps(func(ctx context.Context, deps api.Deps) error {
		feature, ok := deps.Config.Feature(args[0])
		if !ok {
			return fmt.Errorf("unknown feature %q", args[0])
		}
		doc, err := deps.Renderer.Render(feature, renderBaseURL(deps.Config))
		if err != nil {
			return err
		}
		if renderOut != "" {
			if err := os.WriteFile(renderOut, doc, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", renderOut, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", renderOut)
			return nil
		}
		_, err = cmd.OutOrStdout().Write(doc)
		return err
	})
}

func renderBaseURL(cfg *config.Config) string {
	switch {
	case renderBase != "":
		return strings.TrimRight(renderBase, "/")
	case cfg.Server.PublicBaseURL != "":
		return strings.TrimRight(cfg.Server.PublicBaseURL, "/")
	default:
		return "http://localhost:" + cfg.Server.Port
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	return withDeps(func(ctx context.Context, deps api.Deps) error {
		status := deps.Relay.ProbeAll(ctx)
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FEATURE\tOK\tSTATUS\tDURATION\tERROR")
		for _, r := range status.Results {
			fmt.Fprintf(w, "%s\t%t\t%d\t%dms\t%s\n", r.Feature, r.Success, r.StatusCode, r.DurationMS, r.Error)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d/%d successful (%s)\n",
			status.Summary.Successful, status.Summary.Total, status.Summary.SuccessRate)
		return nil
	})
}

func runJournal(cmd *cobra.Command, args []string) error {
	return withDeps(func(ctx context.Context, deps api.Deps) error {
		if deps.Journal == nil {
			return fmt.Errorf("journal is disabled; set journal.path or JOURNAL_PATH")
		}
		entries, err := deps.Journal.Recent(ctx, journalFeature, journalLimit)
		if err != nil {
			return err
		}
		if journalCSV != "" {
			if err := journal.WriteCSVFile(journalCSV, entries); err != nil {
				return fmt.Errorf("write %s: %w", journalCSV, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d exchanges to %s\n", len(entries), journalCSV)
			return nil
		}
		printEntries(cmd, entries)
		return nil
	})
}

func printEntries(cmd *cobra.Command, entries []journal.Entry) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tFEATURE\tMETHOD\tSTATUS\tOUTCOME\tDURATION\tDETAIL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%dms\t%s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Feature, e.Method, e.StatusCode, e.Outcome, e.Duration, e.Detail)
	}
	_ = w.Flush()
}

func runLint(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	deps, closeDeps, err := api.BuildDeps(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeDeps() }()

	warnings := deps.Renderer.LintAll()
	for _, w := range warnings {
		fmt.Fprintln(cmd.OutOrStdout(), w)
	}
	if len(warnings) > 0 {
		return fmt.Errorf("%d shell warning(s)", len(warnings))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d dashboards ok\n", len(cfg.Features))
	return nil
}

func runTransform(cmd *cobra.Command, args []string) error {
	raw, err := data.LoadPayloadFile(args[0])
	if err != nil {
		return err
	}
	out, err := data.TransformForecast(raw)
	if err != nil {
		return err
	}
	if transformOut != "" {
		if err := data.SavePayloadFile(transformOut, out); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", transformOut)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func runSmoke(cmd *cobra.Command, args []string) error {
	report, err := smoke.Check(context.Background(), args[0], smoke.Options{
		Bin:         smokeBin,
		DebuggerURL: smokeDebugger,
		Timeout:     timeout,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", report.URL, report.State, report.Duration.Round(time.Millisecond))
	if report.Message != "" {
		fmt.Fprintln(cmd.OutOrStdout(), report.Message)
	}
	if !report.OK() {
		return fmt.Errorf("dashboard did not load")
	}
	return nil
}
