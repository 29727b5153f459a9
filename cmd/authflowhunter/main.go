// Command authflowhunter drives a real browser through an OAuth
// authentication redirect flow and reports a pass/fail verdict per
// checkpoint. Exit code 0 means the whole flow passed; 1 means a checkpoint
// failed, setup broke, or the run was interrupted.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/selimozcann/AuthFlowHunter/internal/banner"
	"github.com/selimozcann/AuthFlowHunter/internal/browser"
	"github.com/selimozcann/AuthFlowHunter/internal/config"
	"github.com/selimozcann/AuthFlowHunter/internal/flow"
	"github.com/selimozcann/AuthFlowHunter/internal/httpclient"
	"github.com/selimozcann/AuthFlowHunter/internal/inspect"
	"github.com/selimozcann/AuthFlowHunter/internal/matcher"
	"github.com/selimozcann/AuthFlowHunter/internal/model"
	"github.com/selimozcann/AuthFlowHunter/internal/output"
	"github.com/selimozcann/AuthFlowHunter/internal/podlog"
	"github.com/selimozcann/AuthFlowHunter/internal/preflight"
	"github.com/selimozcann/AuthFlowHunter/internal/statuscolor"
	"github.com/selimozcann/AuthFlowHunter/internal/verdict"
)

type options struct {
	url         string
	username    string
	password    string
	browserName string
	headless    bool
	insecure    bool
	configPath  string
	initialWait time.Duration
	loginWait   time.Duration
	finalWait   time.Duration
	doPreflight bool
	doPodLogs   bool
	outputJSONL string
	outputHTML  string
	verbose     bool
	noBanner    bool
}

func main() {
	opts := options{}

	root := &cobra.Command{
		Use:           "authflowhunter",
		Short:         "Verify an OAuth authentication redirect flow end to end",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := root.Flags()
	f.StringVarP(&opts.url, "url", "u", "https://odh-gateway.apps-crc.testing/", "Gateway URL to test")
	f.StringVar(&opts.username, "username", "developer", "Login username")
	f.StringVar(&opts.password, "password", "developer", "Login password")
	f.StringVar(&opts.browserName, "browser", "chrome", "Browser: chrome, chromium, or an explicit binary path")
	f.BoolVar(&opts.headless, "headless", true, "Run the browser without a visible window")
	f.BoolVar(&opts.insecure, "insecure", true, "Accept self-signed certificates")
	f.StringVar(&opts.configPath, "config", "", "YAML config (indicators, selectors, pod sources)")
	f.DurationVar(&opts.initialWait, "initial-wait", 0, "Settle delay before the first checkpoint (overrides config)")
	f.DurationVar(&opts.loginWait, "login-wait", 0, "Settle delay after login submission (overrides config)")
	f.DurationVar(&opts.finalWait, "final-wait", 0, "Settle delay before the final checkpoint (overrides config)")
	f.BoolVar(&opts.doPreflight, "preflight", true, "Trace the HTTP redirect chain before launching the browser")
	f.BoolVar(&opts.doPodLogs, "pod-logs", true, "Capture backend pod logs at each checkpoint")
	f.StringVarP(&opts.outputJSONL, "output", "o", "", "Append a JSONL record to this file")
	f.StringVar(&opts.outputHTML, "html", "", "Write an HTML report to this file")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output and debug logging")
	f.BoolVar(&opts.noBanner, "no-banner", false, "Suppress the startup banner")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "[-] Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	if !opts.noBanner {
		banner.PrintBanner()
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.initialWait > 0 {
		cfg.Waits.Initial = opts.initialWait
	}
	if opts.loginWait > 0 {
		cfg.Waits.Login = opts.loginWait
	}
	if opts.finalWait > 0 {
		cfg.Waits.Final = opts.finalWait
	}

	bin, err := browser.ResolveBin(opts.browserName)
	if err != nil {
		return err
	}

	rep := execute(ctx, opts, cfg, bin, log)

	console := output.Console{W: os.Stdout, Verbose: opts.verbose}
	console.PrintReport(rep)

	if opts.outputJSONL != "" {
		if err := writeJSONL(opts.outputJSONL, output.BuildRecord(rep)); err != nil {
			return err
		}
	}
	if opts.outputHTML != "" {
		if err := writeHTML(opts.outputHTML, rep); err != nil {
			return err
		}
	}

	if ctx.Err() != nil {
		return fmt.Errorf("interrupted")
	}
	if !rep.Passed {
		return fmt.Errorf("authentication flow failed")
	}
	return nil
}

// execute runs preflight, the browser flow, and the post-run inspectors.
// All classification outcomes land in the report; only setup faults are
// reported through Report.Error.
func execute(ctx context.Context, opts options, cfg config.Config, bin string, log *slog.Logger) model.Report {
	rep := model.Report{Target: opts.url, StartedAt: time.Now()}

	if opts.doPreflight {
		client := httpclient.New(httpclient.Config{Timeout: 15 * time.Second, Insecure: opts.insecure, Retries: 1})
		pf := preflight.New(client, 15).Trace(ctx, opts.url)
		rep.Preflight = pf.Chain
		rep.Findings = append(rep.Findings, pf.Findings...)
		if len(pf.Chain) > 0 {
			fmt.Printf("[+] Preflight chain for %s\n", opts.url)
			statuscolor.PrintHops(pf.Chain)
		}
		if pf.Error != "" {
			log.Warn("preflight failed, continuing with browser run", "error", pf.Error)
		}
	}

	driver, err := browser.Launch(ctx, browser.Config{
		Bin:      bin,
		Headless: opts.headless,
		Insecure: opts.insecure,
		Logger:   log,
	})
	if err != nil {
		rep.Error = err.Error()
		rep.DurationMs = time.Since(rep.StartedAt).Milliseconds()
		return rep
	}

	var fetcher *podlog.Fetcher
	var sources []podlog.Source
	if opts.doPodLogs {
		fetcher = podlog.New(podlog.Config{Tool: cfg.LogTool, Logger: log})
		sources = cfg.PodSources
	}

	flowRep := flow.Run(ctx, flow.Options{
		Target:      opts.url,
		Credentials: browser.Credentials{Username: opts.username, Password: opts.password},
		Selectors:   cfg.Selectors,
		Waits:       cfg.Waits,
		Engine: verdict.New(
			matcher.Keywords(cfg.SuccessIndicators),
			matcher.Keywords(cfg.ErrorIndicators),
		),
		Driver:     driver,
		Logs:       fetcher,
		PodSources: sources,
		Logger:     log,
	})

	rep.Checkpoints = flowRep.Checkpoints
	rep.Passed = flowRep.Passed
	rep.Network = flowRep.Network
	rep.Findings = append(rep.Findings, flowRep.Findings...)
	rep.DurationMs = time.Since(rep.StartedAt).Milliseconds()

	if fetcher != nil {
		rep.PodLogs = fetcher.Fetch(ctx, sources)
	}

	inspect.Run(ctx, &rep, inspect.Default())
	return rep
}

func writeJSONL(path string, rec output.Record) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create JSONL directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("create JSONL file: %w", err)
	}
	defer f.Close()
	if err := output.WriteJSONL(f, rec); err != nil {
		return fmt.Errorf("write JSONL: %w", err)
	}
	return nil
}

func writeHTML(path string, rep model.Report) error {
	if err := ensureDir(path); err != nil {
		return fmt.Errorf("create HTML directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML file: %w", err)
	}
	defer f.Close()
	page := output.PageData{
		Title:       "AuthFlowHunter Report",
		GeneratedAt: time.Now().UTC(),
		Report:      rep,
		Summary:     output.BuildSummary(rep),
	}
	if err := output.RenderHTML(f, page); err != nil {
		return fmt.Errorf("write HTML: %w", err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
