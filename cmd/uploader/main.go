package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"uploader/internal/config"
	"uploader/internal/database"
	"uploader/internal/keywords"
	"uploader/internal/logger"
	"uploader/internal/orchestrator"
	"uploader/internal/quota"
	"uploader/internal/report"
	"uploader/internal/safety"
	"uploader/internal/services/bulsaja"
	"uploader/internal/sheets"
	"uploader/internal/worker/processors/ai"
	"uploader/internal/worker/processors/validation"
)

type options struct {
	config      string
	session     string
	groups      string
	accounts    string
	sheet       string
	markets     string
	uploadCount int
	optionCount int
	sort        string
	simulate    bool
	report      string
	keywords    string
	testID      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("uploader", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.config, "config", "", "Session config JSON (tokens, counts, pricing). Required")
	fs.StringVar(&o.session, "session", "", "Session name stored with the run. Defaults to the config file name")
	fs.StringVar(&o.groups, "group", "", "Market group name(s), comma separated. Required unless -accounts")
	fs.StringVar(&o.accounts, "accounts", "", "Accounts xlsx; every active row is uploaded and gets a status")
	fs.StringVar(&o.sheet, "sheet", "", "Sheet of the accounts workbook (first sheet when empty)")
	fs.StringVar(&o.markets, "markets", "", "Markets, comma separated (스마트스토어,11번가,G마켓/옥션,쿠팡 or types)")
	fs.IntVar(&o.uploadCount, "upload-count", 0, "Products per group (overrides the session config)")
	fs.IntVar(&o.optionCount, "option-count", 0, "Options kept per product (overrides the session config)")
	fs.StringVar(&o.sort, "sort", "", "Option order: price_asc|price_desc|price_main")
	fs.BoolVar(&o.simulate, "simulate", false, "Classify only, upload nothing")
	fs.StringVar(&o.report, "report", "", "Write a simulation report xlsx to this path")
	fs.StringVar(&o.keywords, "keywords", "", "Keyword/rule JSON (overrides KEYWORDS_PATH)")
	fs.StringVar(&o.testID, "test-id", "", "Process this single product id")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.config == "" {
		return nil, errors.New("-config is required")
	}
	if o.groups == "" && o.accounts == "" && o.testID == "" {
		return nil, errors.New("-group or -accounts is required")
	}
	for _, path := range []string{o.config, o.accounts, o.keywords} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if o.session == "" {
		o.session = strings.TrimSuffix(filepath.Base(o.config), filepath.Ext(o.config))
	}
	return &o, nil
}

// run returns the process exit code: 0 when the run completed, 1 on missing
// arguments or files, configuration errors and interruption.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, "error:", err)
		}
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "error: load environment:", err)
		return 1
	}
	log := logger.New(cfg.LogLevel).With("session", opts.session)

	session, err := config.LoadSession(opts.config)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	applyOverrides(session, opts)
	if err := session.Validate(); err != nil {
		log.Error("%v", err)
		return 1
	}

	kwPath := cfg.KeywordsPath
	if opts.keywords != "" {
		kwPath = opts.keywords
	}
	rules, err := keywords.NewStore(kwPath)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	var reviewer safety.Reviewer
	if r, err := ai.New(ctx, cfg, log); err != nil {
		log.Warn("strict-tier review disabled, those products go to manual review: %v", err)
	} else {
		reviewer = r
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	defer db.Close()
	repo := database.NewRepository(db.DB)

	var tracker quota.Tracker = quota.NewMemory()
	if cfg.RedisURL != "" {
		rc := quota.Config{URL: cfg.RedisURL, ReadTimeout: 3, WriteTimeout: 3, DialTimeout: 5}
		client, err := rc.New()
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		defer client.Close()
		tracker = quota.NewRedis(client)
	}

	validator := validation.New(rules, reviewer, log)
	var collector report.Collector

	jobs, err := plan(opts, session)
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	var total orchestrator.Summary
	var runErr error
	for _, j := range jobs {
		req, err := orchestrator.FromSession(j.session, j.groups)
		if err != nil {
			log.Error("%v", err)
			return 1
		}
		tokens := j.session
		o := orchestrator.New(func() orchestrator.VendorAPI {
			return bulsaja.NewClient(cfg.VendorBaseURL, tokens.AccessToken, tokens.RefreshToken, log)
		}, validator, tracker, repo, log)
		req.DryRun = opts.simulate
		req.TestProductID = opts.testID
		if opts.simulate || opts.report != "" {
			req.OnDecision = collector.Observe
		}

		_, sum, err := o.RunRecorded(ctx, repo, j.name, req)
		total.Merge(sum)
		if j.row > 0 {
			if werr := sheets.WriteStatus(opts.accounts, opts.sheet, j.row, sum.String(), time.Now()); werr != nil {
				log.Error("status not written for row %d: %v", j.row, werr)
			}
		}
		if err != nil {
			runErr = err
			break
		}
	}

	if opts.report != "" {
		if err := report.WriteSimulation(opts.report, collector.Rows()); err != nil {
			log.Error("%v", err)
		} else {
			log.Info("report written to %s", opts.report)
		}
	}

	fmt.Fprintf(stdout, "success=%d failed=%d skipped=%d total=%d\n", total.Success, total.Failed, total.Skipped, total.Total)
	if runErr != nil {
		log.Error("run interrupted: %v", runErr)
		return 1
	}
	return 0
}

func applyOverrides(s *config.Session, o *options) {
	if o.markets != "" {
		s.Markets = splitList(o.markets)
	}
	if o.uploadCount > 0 {
		s.UploadCount = o.uploadCount
	}
	if o.optionCount > 0 {
		s.OptionCount = o.optionCount
	}
	if o.sort != "" {
		s.OptionSort = o.sort
	}
}

type job struct {
	groups  []string
	session *config.Session
	name    string
	row     int // accounts sheet row, 0 without -accounts
}

// plan turns -group or the accounts sheet into runs. Groups given on the
// command line run together; every account row runs on its own so its
// status can be written back.
func plan(o *options, s *config.Session) ([]job, error) {
	if o.accounts == "" || o.testID != "" {
		return []job{{groups: splitList(o.groups), session: s, name: o.session}}, nil
	}

	accounts, err := sheets.ReadAccounts(o.accounts, o.sheet)
	if err != nil {
		return nil, err
	}
	jobs := make([]job, 0, len(accounts))
	for _, acc := range accounts {
		rowSession, name := *s, o.session
		if acc.Session != "" {
			// other sessions live next to -config
			loaded, err := config.LoadSession(filepath.Join(filepath.Dir(o.config), acc.Session+".json"))
			if err != nil {
				return nil, err
			}
			applyOverrides(loaded, o)
			if err := loaded.Validate(); err != nil {
				return nil, err
			}
			rowSession, name = *loaded, acc.Session
		}
		if len(acc.Markets) > 0 && o.markets == "" {
			rowSession.Markets = acc.Markets
		}
		jobs = append(jobs, job{groups: []string{acc.Group}, session: &rowSession, name: name, row: acc.Row})
	}
	return jobs, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
