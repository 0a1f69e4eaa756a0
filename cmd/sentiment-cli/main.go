package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"yashubustudio/sentiment/internal/config"
	"yashubustudio/sentiment/internal/logging"
	"yashubustudio/sentiment/sentiment"
)

type cliOptions struct {
	configPath string
	review     string
	inputPath  string
	outputPath string
	inputOpts  sentiment.InputParseOptions
	serverURL  string
	timeout    time.Duration
	jsonOut    bool
	initConfig bool
	verbose    bool
}

// scorer is satisfied by the local predictor and by the HTTP client.
type scorer interface {
	PredictAll(ctx context.Context, reviews []string) ([]sentiment.Result, error)
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("sentiment-cli: %v", err)
	}
	if err := run(opts, os.Stdout); err != nil {
		log.Fatalf("sentiment-cli: %v", err)
	}
}

func parseFlags(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("sentiment-cli", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "Path to config.json (default: $CONFIG_PATH or ./config.json)")
	fs.StringVar(&opts.review, "review", "", "Single review to classify")
	fs.StringVar(&opts.inputPath, "input", "", "CSV/TSV/text file containing reviews to classify")
	fs.StringVar(&opts.inputOpts.TextColumn, "text-column", "", "Column name or #index for the review text")
	fs.StringVar(&opts.inputOpts.IDColumn, "id-column", "", "Column name or #index for the review id")
	fs.StringVar(&opts.outputPath, "output", "", "CSV file to write results (text,prediction,probability)")
	fs.StringVar(&opts.serverURL, "server", "", "Base URL of a running sentiment server; skips loading the model locally")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Per-request timeout in --server mode")
	fs.BoolVar(&opts.jsonOut, "json", false, "Print one JSON object per review")
	fs.BoolVar(&opts.initConfig, "init-config", false, "Write a default config file to --config and exit")
	fs.BoolVar(&opts.verbose, "v", false, "Enable debug logging")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s (--review TEXT | --input FILE) [options]\n\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.serverURL = strings.TrimRight(strings.TrimSpace(opts.serverURL), "/")

	if opts.initConfig {
		return opts, nil
	}
	if opts.review == "" && opts.inputPath == "" {
		fs.Usage()
		return opts, errors.New("one of --review or --input is required")
	}
	if opts.review != "" && opts.inputPath != "" {
		return opts, errors.New("--review and --input are mutually exclusive")
	}
	return opts, nil
}

func run(opts cliOptions, stdout io.Writer) error {
	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := logging.InitLoggerTo(os.Stderr, level, "text")

	envCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load environment: %w", err)
	}
	if opts.configPath == "" {
		opts.configPath = envCfg.ConfigPath
	}

	if opts.initConfig {
		var cfg sentiment.Config
		cfg.ApplyDefaults()
		if err := sentiment.SaveConfig(opts.configPath, cfg); err != nil {
			return fmt.Errorf("write config: %w", err)
		}
		fmt.Fprintf(stdout, "wrote default config to %s\n", opts.configPath)
		return nil
	}

	records, err := collectRecords(opts)
	if err != nil {
		return err
	}

	var s scorer
	if opts.serverURL != "" {
		s = newRemoteClient(opts.serverURL, opts.timeout)
		logger.Debug("Using remote predictor", "url", opts.serverURL)
	} else {
		predictor, closeFn, err := loadLocalPredictor(opts.configPath, envCfg, logger)
		if err != nil {
			return err
		}
		defer closeFn()
		s = predictor
	}

	results, err := classify(context.Background(), s, records)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}

	if opts.outputPath != "" {
		if err := writeResultCSV(opts.outputPath, records, results); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %d results to %s\n", len(results), opts.outputPath)
		return nil
	}
	if opts.jsonOut {
		return printJSON(stdout, records, results)
	}
	printSummary(stdout, records, results)
	return nil
}

func collectRecords(opts cliOptions) ([]sentiment.InputRecord, error) {
	if opts.review != "" {
		return []sentiment.InputRecord{{Text: opts.review}}, nil
	}
	records, err := sentiment.ParseInputRecords(opts.inputPath, opts.inputOpts)
	if err != nil {
		return nil, fmt.Errorf("read input records: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("input file does not contain any reviews")
	}
	return records, nil
}

func loadLocalPredictor(configPath string, envCfg *config.Config, logger *slog.Logger) (*sentiment.Predictor, func(), error) {
	cfg, err := sentiment.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	envCfg.ApplyModelOverrides(&cfg)
	normalizer, err := sentiment.LoadNormalizer(cfg.Resources)
	if err != nil {
		return nil, nil, fmt.Errorf("load resources: %w", err)
	}
	classifier, err := sentiment.LoadClassifier(cfg.Model)
	if err != nil {
		return nil, nil, fmt.Errorf("load model: %w", err)
	}
	predictor, err := sentiment.NewPredictor(classifier, normalizer, logger)
	if err != nil {
		_ = classifier.Close()
		return nil, nil, fmt.Errorf("init predictor: %w", err)
	}
	closeFn := func() {
		if err := classifier.Close(); err != nil {
			logger.Warn("Failed to release classifier", "error", err)
		}
	}
	return predictor, closeFn, nil
}

func classify(ctx context.Context, s scorer, records []sentiment.InputRecord) ([]sentiment.Result, error) {
	reviews := make([]string, len(records))
	for i, rec := range records {
		reviews[i] = rec.Text
	}
	return s.PredictAll(ctx, reviews)
}

func writeResultCSV(path string, records []sentiment.InputRecord, results []sentiment.Result) error {
	if len(records) != len(results) {
		return fmt.Errorf("records/results length mismatch: %d vs %d", len(records), len(results))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	f, err := os.Create(absPath)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"text", "prediction", "probability"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range records {
		row := []string{rec.Text, results[i].Prediction, results[i].Probability}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}

type jsonLine struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
	sentiment.Result
}

func printJSON(w io.Writer, records []sentiment.InputRecord, results []sentiment.Result) error {
	enc := json.NewEncoder(w)
	for i, rec := range records {
		if err := enc.Encode(jsonLine{ID: rec.ID, Text: rec.Text, Result: results[i]}); err != nil {
			return fmt.Errorf("encode result %d: %w", i, err)
		}
	}
	return nil
}

func printSummary(w io.Writer, records []sentiment.InputRecord, results []sentiment.Result) {
	for i, rec := range records {
		fmt.Fprintf(w, "%d. %-8s %s  %s\n", i+1, results[i].Prediction, results[i].Probability, summarizeRecord(rec))
	}
}

func summarizeRecord(rec sentiment.InputRecord) string {
	prefix := ""
	if id := strings.TrimSpace(rec.ID); id != "" {
		prefix = "#" + id + " "
	}
	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return prefix + "(empty review)"
	}
	runeText := []rune(text)
	if len(runeText) > 60 {
		return prefix + string(runeText[:60]) + "…"
	}
	return prefix + text
}
