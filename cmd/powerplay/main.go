// Package main provides the powerplay command line tool: Powerball draw
// history ingestion, frequency analysis, and number recommendations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rdelaney/powerplay/internal/analysis"
	"github.com/rdelaney/powerplay/internal/charts"
	"github.com/rdelaney/powerplay/internal/config"
	"github.com/rdelaney/powerplay/internal/dashboard"
	"github.com/rdelaney/powerplay/internal/ingest"
	"github.com/rdelaney/powerplay/internal/storage"
	"github.com/rdelaney/powerplay/internal/strategy"
	"github.com/rdelaney/powerplay/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `powerplay - Powerball draw analytics and recommendations

Usage:
  powerplay <command> [flags]

Commands:
  fetch      Update the draw database from the NY Open Data API
  import     Import draw history from a CSV file
  export     Export the draw database to a CSV file
  analyze    Print frequency patterns and the uniformity check
  recommend  Print recommended number sets
  trends     Write a rolling trend chart to an HTML file
  dashboard  Run the local analytics dashboard
  backup     Create a database backup
  restore    Restore the database from a backup
  version    Print the application version

Run 'powerplay <command> -h' for command flags.
`)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var cmdErr error
	switch os.Args[1] {
	case "fetch":
		cmdErr = runFetch(cfg, os.Args[2:])
	case "import":
		cmdErr = runImport(cfg, os.Args[2:])
	case "export":
		cmdErr = runExport(cfg, os.Args[2:])
	case "analyze":
		cmdErr = runAnalyze(cfg, os.Args[2:])
	case "recommend":
		cmdErr = runRecommend(cfg, os.Args[2:])
	case "trends":
		cmdErr = runTrends(cfg, os.Args[2:])
	case "dashboard":
		cmdErr = runDashboard(cfg, os.Args[2:])
	case "backup":
		cmdErr = runBackup(cfg, os.Args[2:])
	case "restore":
		cmdErr = runRestore(cfg, os.Args[2:])
	case "version":
		fmt.Printf("powerplay %s\n", version.GetVersion())
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if cmdErr != nil {
		log.Fatalf("Command failed: %v", cmdErr)
	}
}

// openDatabase opens the configured SQLite database, running migrations.
func openDatabase(cfg *config.Config) (*storage.DB, error) {
	dbConfig := storage.DefaultConfig(cfg.Data.DatabasePath)
	dbConfig.AutoMigrate = true
	return storage.Open(dbConfig)
}

func newIngestClient(cfg *config.Config) *ingest.Client {
	timeout, _ := time.ParseDuration(cfg.Ingest.Timeout)
	interval, _ := time.ParseDuration(cfg.Ingest.RequestInterval)

	return ingest.NewClient(ingest.Options{
		APIURL:          cfg.Ingest.APIURL,
		Timeout:         timeout,
		RequestInterval: interval,
		Cooldown:        time.Duration(cfg.Ingest.CooldownHours) * time.Hour,
		CooldownPath:    filepath.Join(cfg.Data.Dir, ".last_fetch"),
	})
}

func newEngine(cfg *config.Config, seed int64) *strategy.Engine {
	opts := &strategy.Options{
		DecayBase:        cfg.Analysis.DecayBase,
		Schedule:         cfg.Analysis.ScheduleWeekdays,
		HotWhitePool:     cfg.Strategy.HotWhitePool,
		HotRedPool:       cfg.Strategy.HotRedPool,
		RecencyWhitePool: cfg.Strategy.RecencyWhitePool,
		RecencyRedPool:   cfg.Strategy.RecencyRedPool,
	}
	if seed == 0 {
		seed = cfg.Strategy.RandomSeed
	}
	if seed != 0 {
		opts.Rand = rand.New(rand.NewSource(seed))
	}
	return strategy.NewEngine(opts)
}

func runFetch(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	force := fs.Bool("force", false, "Ignore the fetch cooldown")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	updater := ingest.NewUpdater(newIngestClient(cfg), storage.NewDrawRepository(db.Conn()), nil)
	fresh, err := updater.Update(context.Background(), *force)
	if err != nil {
		return err
	}
	fmt.Printf("Stored %d new draws\n", fresh)
	return nil
}

func runImport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", cfg.Data.CSVPath, "CSV file to import")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, skipped, err := storage.ImportCSV(*file, nil)
	if err != nil {
		return err
	}

	inserted, err := storage.NewDrawRepository(db.Conn()).InsertBatch(context.Background(), records)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d draws (%d rows skipped, %d already present)\n",
		inserted, skipped, len(records)-inserted)
	return nil
}

func runExport(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("file", cfg.Data.CSVPath, "CSV file to write")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewDrawRepository(db.Conn()).GetAll(context.Background())
	if err != nil {
		return err
	}
	if err := storage.ExportCSV(*file, records); err != nil {
		return err
	}
	fmt.Printf("Exported %d draws to %s\n", len(records), *file)
	return nil
}

func runAnalyze(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	top := fs.Int("top", 10, "How many hot and cold numbers to list")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewDrawRepository(db.Conn()).GetAll(context.Background())
	if err != nil {
		return err
	}

	report, err := analysis.Patterns(records)
	if err != nil {
		return err
	}

	fmt.Printf("Draws analyzed: %d\n", len(records))
	fmt.Printf("White balls:    mean %.2f, std dev %.2f\n", report.WhiteMean, report.WhiteStdDev)
	fmt.Printf("Red balls:      mean %.2f, std dev %.2f\n", report.RedMean, report.RedStdDev)
	fmt.Printf("Chi-square:     %.2f (uniform at 0.05: %v)\n\n", report.ChiSquare, report.Uniform)

	fmt.Printf("Hot whites (top %d):\n", *top)
	printed := 0
	for _, p := range report.Whites {
		if p.Hot && printed < *top {
			fmt.Printf("  %2d  drawn %d times (%.2f%%)\n", p.Number, p.Count, p.Pct)
			printed++
		}
	}

	fmt.Printf("\nCold whites (bottom %d):\n", *top)
	printed = 0
	for _, p := range report.Whites {
		if p.Cold && printed < *top {
			fmt.Printf("  %2d  drawn %d times (%.2f%%)\n", p.Number, p.Count, p.Pct)
			printed++
		}
	}
	return nil
}

func runRecommend(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	strategies := fs.String("strategies", "", "Comma separated strategy names (empty = all)")
	seed := fs.Int64("seed", 0, "Random seed for reproducible picks (0 = config or random)")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewDrawRepository(db.Conn()).GetAll(context.Background())
	if err != nil {
		return err
	}

	var names []string
	for _, n := range strings.Split(*strategies, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}

	picks, err := newEngine(cfg, *seed).Run(records, names)
	if err != nil {
		return err
	}
	for _, ps := range picks {
		fmt.Println(strategy.Format(ps))
	}
	return nil
}

func runTrends(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	out := fs.String("out", "trends.html", "Output HTML file")
	top := fs.Int("top", cfg.Analysis.TrendTopN, "How many top balls to chart")
	window := fs.Int("window", cfg.Analysis.TrendWindow, "Rolling window in draws")
	open := fs.Bool("open", false, "Open the chart in the default browser")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := storage.NewDrawRepository(db.Conn()).GetAll(context.Background())
	if err != nil {
		return err
	}

	report, err := analysis.RollingTrends(records, *top, *window)
	if err != nil {
		return err
	}

	if err := charts.RenderToFile(*out, func(w io.Writer) error {
		return charts.TrendChart(w, report)
	}); err != nil {
		return err
	}
	fmt.Printf("Wrote trend chart to %s\n", *out)

	if *open {
		return charts.OpenInBrowser(*out)
	}
	return nil
}

func runDashboard(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ExitOnError)
	port := fs.Int("port", cfg.Dashboard.Port, "Dashboard port")
	autoUpdate := fs.Bool("auto-update", true, "Fetch new draws daily while running")
	watchCSV := fs.Bool("watch-csv", false, "Re-import the draw CSV when it changes on disk")
	_ = fs.Parse(args)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := storage.NewDrawRepository(db.Conn())
	server := dashboard.NewServer(&dashboard.Config{
		Port:      *port,
		DecayBase: cfg.Analysis.DecayBase,
		TrendTopN: cfg.Analysis.TrendTopN,
		TrendWin:  cfg.Analysis.TrendWindow,
	}, repo, newEngine(cfg, 0))

	if err := server.Start(); err != nil {
		return err
	}
	fmt.Printf("Dashboard running at http://localhost:%d\n", *port)

	var scheduler *storage.UpdateScheduler
	if *autoUpdate {
		updater := ingest.NewUpdater(newIngestClient(cfg), repo, nil)
		scheduler = storage.NewUpdateScheduler(func(ctx context.Context) error {
			_, err := updater.Update(ctx, false)
			return err
		}, nil)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if *watchCSV {
		watcher := ingest.NewFileWatcher(cfg.Data.CSVPath, func() {
			records, skipped, err := storage.ImportCSV(cfg.Data.CSVPath, nil)
			if err != nil {
				slog.Error("re-import draw csv", "error", err)
				return
			}
			inserted, err := repo.InsertBatch(context.Background(), records)
			if err != nil {
				slog.Error("store re-imported draws", "error", err)
				return
			}
			slog.Info("draw csv re-imported", "new_draws", inserted, "skipped", skipped)
		}, nil)
		go func() {
			if err := watcher.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("csv watcher stopped", "error", err)
			}
		}()
	}

	// Block until interrupted.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

func runBackup(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	dir := fs.String("dir", cfg.Backup.Dir, "Backup directory (empty = <data>/backups)")
	name := fs.String("name", "", "Backup file name (empty = timestamp)")
	_ = fs.Parse(args)

	backupConfig := &storage.BackupConfig{
		BackupDir:    *dir,
		BackupName:   *name,
		VerifyBackup: true,
	}
	if cfg.Backup.Encrypt {
		backupConfig.Encryption = storage.DefaultEncryptionConfig(cfg.Backup.Passphrase)
	}

	path, err := storage.NewBackupManager(cfg.Data.DatabasePath).Backup(backupConfig)
	if err != nil {
		return err
	}
	fmt.Printf("Backup written to %s\n", path)
	return nil
}

func runRestore(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	file := fs.String("file", "", "Backup file to restore (required)")
	_ = fs.Parse(args)

	if *file == "" {
		return errors.New("the -file flag is required")
	}

	var encConfig *storage.EncryptionConfig
	encrypted, err := storage.IsEncrypted(*file)
	if err != nil {
		return err
	}
	if encrypted {
		if cfg.Backup.Passphrase == "" {
			return errors.New("backup is encrypted but no passphrase is configured")
		}
		encConfig = storage.DefaultEncryptionConfig(cfg.Backup.Passphrase)
	}

	if err := storage.NewBackupManager(cfg.Data.DatabasePath).Restore(*file, encConfig); err != nil {
		return err
	}
	fmt.Printf("Database restored from %s\n", *file)
	return nil
}
