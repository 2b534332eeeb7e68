package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"ercot-mcp/internal/config"
	"ercot-mcp/internal/ercot"
	"ercot-mcp/internal/forecast"
	"ercot-mcp/internal/frame"
	"ercot-mcp/internal/logger"
)

const dateLayout = "2006-01-02"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "endpoints":
		cmdEndpoints(os.Args[2:])
	case "fetch":
		cmdFetch(os.Args[2:])
	case "netload":
		cmdNetLoad(os.Args[2:])
	case "forecast":
		cmdForecast(os.Args[2:])
	case "cv":
		cmdCV(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli endpoints [--category prices]")
	fmt.Println("  cli fetch --endpoint da_prices --from 2024-06-01 [--to 2024-06-07] [--point HB_NORTH] [--out data.json]")
	fmt.Println("  cli netload --from 2024-06-01 [--to 2024-06-07] [--out netload.json]")
	fmt.Println("  cli forecast --target 2024-06-08 [--days 15] [--degree 3]")
	fmt.Println("  cli cv --from 2024-06-01 --to 2024-06-30 [--days 7] [--degree 3] [--sliding] [--out results/cv.json]")
	fmt.Println("")
	fmt.Println("credentials come from ERCOTUSER, ERCOTPASS, and ERCOTKEY (or a .env file)")
}

func cmdEndpoints(args []string) {
	fs := flag.NewFlagSet("endpoints", flag.ExitOnError)
	category := fs.String("category", "", "Optional category filter")
	_ = fs.Parse(args)

	endpoints := ercot.ListEndpoints(*category)
	if len(endpoints) == 0 {
		fmt.Printf("no endpoints in category %q (known: %v)\n", *category, ercot.Categories())
		os.Exit(1)
	}
	for _, e := range endpoints {
		fmt.Printf("%-28s %-12s %s\n", e.Name, e.Category, e.Summary)
	}
}

func cmdFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	endpoint := fs.String("endpoint", "", "Endpoint name (see 'cli endpoints')")
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD (defaults to --from)")
	point := fs.String("point", "", "Optional settlement point filter")
	size := fs.Int("size", 0, "Optional row limit (0=endpoint default)")
	hourly := fs.Bool("hourly", false, "Resample 5-minute prices to hourly means")
	out := fs.String("out", "", "Optional JSON output path (default: stdout)")
	_ = fs.Parse(args)

	if *endpoint == "" || *from == "" {
		fmt.Println("--endpoint and --from are required")
		os.Exit(2)
	}

	client := mustClient()
	dat, err := client.FetchData(context.Background(), *endpoint, ercot.FetchOptions{
		DateFrom:        *from,
		DateTo:          *to,
		SettlementPoint: *point,
		Size:            *size,
	})
	if err != nil {
		fatal(err)
	}
	if *hourly {
		dat = frame.ResampleHourly(dat, "SettlementPoint")
	}
	writeFrame(dat, *out)
}

func cmdNetLoad(args []string) {
	fs := flag.NewFlagSet("netload", flag.ExitOnError)
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD (defaults to --from)")
	size := fs.Int("size", 0, "Optional row limit per endpoint")
	out := fs.String("out", "", "Optional JSON output path (default: stdout)")
	_ = fs.Parse(args)

	if *from == "" {
		fmt.Println("--from is required")
		os.Exit(2)
	}

	client := mustClient()
	dat, err := forecast.GetNetLoadForecast(context.Background(), client, *from, *to, *size)
	if err != nil {
		fatal(err)
	}
	writeFrame(dat, *out)
}

func cmdForecast(args []string) {
	fs := flag.NewFlagSet("forecast", flag.ExitOnError)
	target := fs.String("target", "", "Target date YYYY-MM-DD")
	days := fs.Int("days", 0, "Training days (default from config)")
	degree := fs.Int("degree", 0, "Polynomial degree (default from config)")
	_ = fs.Parse(args)

	cfg := config.Default()
	targetDate, err := time.ParseInLocation(dateLayout, *target, time.UTC)
	if err != nil {
		fmt.Printf("--target must be YYYY-MM-DD: %v\n", err)
		os.Exit(2)
	}

	client := mustClient()
	result, err := forecast.DayAheadForecast(context.Background(), forecast.DayAheadParams{
		TargetDate:       targetDate,
		TrainingDays:     orDefault(*days, cfg.Forecast.TrainingDays),
		PolynomialDegree: orDefault(*degree, cfg.Forecast.PolynomialDegree),
	}, &forecast.MarketDataSource{Fetcher: client})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("training: MAE=%.2f RMSE=%.2f R2=%.3f over %d hours\n",
		result.Training.MAE, result.Training.RMSE, result.Training.RSquared, result.Training.TotalHours)
	for _, p := range result.Predictions {
		fmt.Printf("%s  net_load=%9.1f  predicted_lambda=%8.2f\n",
			p.Datetime.Format("2006-01-02 15:04"), p.NetLoad, p.PredictedLambda)
	}
}

func cmdCV(args []string) {
	fs := flag.NewFlagSet("cv", flag.ExitOnError)
	from := fs.String("from", "", "Start date YYYY-MM-DD")
	to := fs.String("to", "", "End date YYYY-MM-DD")
	days := fs.Int("days", 0, "Initial training days (default from config)")
	degree := fs.Int("degree", 0, "Polynomial degree (default from config)")
	sliding := fs.Bool("sliding", false, "Use a sliding window instead of an expanding one")
	out := fs.String("out", "", "Optional JSON report path; a .csv sibling gets the full predictions")
	_ = fs.Parse(args)

	cfg := config.Default()
	start, err := time.ParseInLocation(dateLayout, *from, time.UTC)
	if err != nil {
		fmt.Printf("--from must be YYYY-MM-DD: %v\n", err)
		os.Exit(2)
	}
	end, err := time.ParseInLocation(dateLayout, *to, time.UTC)
	if err != nil {
		fmt.Printf("--to must be YYYY-MM-DD: %v\n", err)
		os.Exit(2)
	}

	client := mustClient()
	result, err := forecast.RollingForecastCV(context.Background(), forecast.CVParams{
		StartDate:           start,
		EndDate:             end,
		InitialTrainingDays: orDefault(*days, cfg.Forecast.TrainingDays),
		PolynomialDegree:    orDefault(*degree, cfg.Forecast.PolynomialDegree),
		ExpandingWindow:     !*sliding,
	}, &forecast.MarketDataSource{Fetcher: client})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("overall: MAE=%.2f RMSE=%.2f R2=%.3f over %d hours across %d days\n",
		result.Overall.MAE, result.Overall.RMSE, result.Overall.RSquared,
		result.Overall.TotalHours, result.Overall.ForecastDays)
	for _, d := range result.DailyMetrics {
		fmt.Printf("%s  MAE=%7.2f RMSE=%7.2f R2=%6.3f hours=%d\n", d.Date, d.MAE, d.RMSE, d.RSquared, d.Hours)
	}
	for _, g := range result.Gaps {
		fmt.Printf("%s  skipped: %s\n", g.Date, g.Reason)
	}

	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			fatal(err)
		}
		if err := forecast.WriteReportJSON(*out, forecast.NewReport(result)); err != nil {
			fatal(err)
		}
		csvPath := *out
		if ext := filepath.Ext(csvPath); ext != "" {
			csvPath = csvPath[:len(csvPath)-len(ext)]
		}
		csvPath += ".csv"
		if err := forecast.WritePredictionsCSV(csvPath, result.Predictions); err != nil {
			fatal(err)
		}
		fmt.Printf("wrote %s and %s\n", *out, csvPath)
	}
}

func mustClient() *ercot.Client {
	cfg := config.Default()
	logger.Configure(cfg.Logging.Level, logger.FileConfig{})

	creds, err := config.LoadCredentials()
	if err != nil {
		fatal(err)
	}
	auth, err := ercot.NewAuthManager(creds)
	if err != nil {
		fatal(err)
	}
	return ercot.NewClient(auth,
		ercot.WithHTTPClient(&http.Client{Timeout: cfg.HTTP.Timeout}),
		ercot.WithRateLimit(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst),
		ercot.WithRetry(cfg.HTTP.RetryMaxAttempts, cfg.HTTP.BackoffMin, cfg.HTTP.BackoffMax),
	)
}

func writeFrame(f *frame.Frame, out string) {
	payload := map[string]any{
		"shape":   [2]int{f.Len(), len(f.Columns)},
		"columns": f.Columns,
		"data":    f.Rows,
	}
	var w *os.File
	if out == "" {
		w = os.Stdout
	} else {
		var err error
		w, err = os.Create(out)
		if err != nil {
			fatal(err)
		}
		defer w.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		fatal(err)
	}
	if out != "" {
		fmt.Printf("wrote %d rows to %s\n", f.Len(), out)
	}
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
