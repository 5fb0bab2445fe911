package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pavelanni/readingprep/internal/audit"
	"github.com/pavelanni/readingprep/internal/content"
	"github.com/pavelanni/readingprep/internal/curriculum"
	"github.com/pavelanni/readingprep/internal/export"
	"github.com/pavelanni/readingprep/internal/handler"
	appI18n "github.com/pavelanni/readingprep/internal/i18n"
	"github.com/pavelanni/readingprep/internal/llm"
	"github.com/pavelanni/readingprep/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "readingprep",
		Short:        "Reading-comprehension curriculum server",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, auditCmd(), exportCmd(), publishCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `readingprep --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func addContentFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("content-dir", "", "Directory of week JSON/YAML files (empty = embedded curriculum)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP content server",
		RunE:  runServe,
	}
	addContentFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "readingprep.db", "SQLite snapshot path")
	f.Bool("from-snapshot", false, "Serve the published SQLite snapshot instead of content files")
	f.StringP("lang", "l", "en", "Default message language (en, ru)")
	f.String("llm-url", "", "OpenAI-compatible API base URL for definitions (empty = curated only)")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "llama3.2", "LLM model name")
	f.Bool("audit", true, "Audit content at startup and log findings")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /reading)")
	return cmd
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check curriculum content for data-quality problems",
		RunE:  runAudit,
	}
	addContentFlags(cmd)
	f := cmd.Flags()
	f.Bool("strict", false, "Exit with an error when any error-level finding exists")
	f.Int("min-words", 0, "Minimum words per passage (0 = no check)")
	f.Int("max-words", 0, "Maximum words per passage (0 = no check)")
	f.Int("paragraphs", 0, "Required paragraphs per passage (0 = no check)")
	f.Bool("require-underline", false, "Warn about passages without an underlined sentence")
	f.Float64("word-count-tolerance", audit.DefaultWordCountTolerance, "Allowed relative gap between declared and counted words")
	f.String("format", "text", "Output format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the syllabus and vocabulary as an XLSX workbook",
		RunE:  runExport,
	}
	addContentFlags(cmd)
	cmd.Flags().StringP("output", "o", "syllabus.xlsx", "Output file path (- for stdout)")
	return cmd
}

func publishCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Write the curriculum into the SQLite snapshot",
		RunE:  runPublish,
	}
	addContentFlags(cmd)
	cmd.Flags().String("db", "readingprep.db", "SQLite snapshot path")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("READINGPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("readingprep")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/readingprep")
	v.AddConfigPath("/etc/readingprep")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Debug("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

// loadCatalog builds the catalog from --content-dir, or from the embedded
// curriculum when the flag is empty.
func loadCatalog(v *viper.Viper) (*curriculum.Catalog, error) {
	dir := v.GetString("content-dir")
	if dir == "" {
		return content.Load()
	}
	return curriculum.Build(os.DirFS(dir), content.TargetCount)
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	var (
		cat      *curriculum.Catalog
		snapshot *store.Store
		err      error
	)
	if v.GetBool("from-snapshot") {
		if snapshot, err = store.New(v.GetString("db")); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer snapshot.Close()
		if cat, err = snapshot.Catalog(content.TargetCount); err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		info, err := snapshot.GetSnapshotInfo()
		if err != nil {
			return fmt.Errorf("read snapshot info: %w", err)
		}
		slog.Info("serving snapshot", "published_at", info.PublishedAt, "source", info.Source)
	} else if cat, err = loadCatalog(v); err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}
	slog.Info("curriculum ready", "modules", cat.Len(), "fingerprint", cat.Fingerprint())

	if v.GetBool("audit") {
		logFindings(audit.Run(cat.All(), audit.Options{}))
	}

	// Initialize i18n.
	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	var definer handler.Definer
	if url := v.GetString("llm-url"); url != "" {
		definer = llm.New(url, v.GetString("llm-key"), v.GetString("llm-model"))
		slog.Info("LLM definitions enabled", "url", url, "model", v.GetString("llm-model"))
	}
	h := handler.New(cat, definer)
	if snapshot != nil {
		h.SetVocabularySearcher(snapshot)
	}

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))

	if basePath != "" {
		r.Route(basePath, h.Routes)
	} else {
		h.Routes(r)
	}

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"base_path", basePath,
		"from_snapshot", v.GetBool("from-snapshot"),
		"llm", definer != nil,
	)
	return http.ListenAndServe(addr, r)
}

func logFindings(report audit.Report) {
	for _, f := range report.Findings {
		slog.Warn("content audit",
			"module_id", f.ModuleID,
			"passage", f.PassageIndex+1,
			"question_id", f.QuestionID,
			"check", f.Check,
			"severity", f.Severity,
			"message", f.Message,
		)
	}
	slog.Info("content audit finished",
		"modules", report.Modules,
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
	)
}

func runAudit(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cat, err := loadCatalog(v)
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	report := audit.Run(cat.All(), audit.Options{
		WordCountTolerance: v.GetFloat64("word-count-tolerance"),
		MinWords:           v.GetInt("min-words"),
		MaxWords:           v.GetInt("max-words"),
		Paragraphs:         v.GetInt("paragraphs"),
		RequireUnderline:   v.GetBool("require-underline"),
	})

	out := cmd.OutOrStdout()
	switch strings.ToLower(v.GetString("format")) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
	default:
		for _, f := range report.Findings {
			fmt.Fprintln(out, f)
		}
		fmt.Fprintf(out, "%d modules, %d errors, %d warnings\n",
			report.Modules, len(report.Errors()), len(report.Warnings()))
	}

	if v.GetBool("strict") && !report.OK() {
		return fmt.Errorf("audit found %d errors", len(report.Errors()))
	}
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cat, err := loadCatalog(v)
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	outPath := v.GetString("output")
	if outPath == "" || outPath == "-" {
		if err := export.WriteSyllabus(cmd.OutOrStdout(), cat); err != nil {
			return fmt.Errorf("export syllabus: %w", err)
		}
		return nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	if err := export.WriteSyllabus(f, cat); err != nil {
		f.Close()
		return fmt.Errorf("export syllabus: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output file: %w", err)
	}
	slog.Info("exported syllabus", "path", outPath, "modules", cat.Len())
	return nil
}

func runPublish(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	cat, err := loadCatalog(v)
	if err != nil {
		return fmt.Errorf("load curriculum: %w", err)
	}

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	published, err := db.Publish(cat, contentSource(v))
	if err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	if published {
		fmt.Fprintf(cmd.OutOrStdout(), "published %d modules (%s)\n", cat.Len(), cat.Fingerprint())
		return nil
	}
	info, err := db.GetSnapshotInfo()
	if err != nil {
		return fmt.Errorf("read snapshot info: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "snapshot already up to date (%d modules from %s, published %s)\n",
		info.Modules, info.Source, info.PublishedAt.Format(time.RFC3339))
	return nil
}

// contentSource names where loadCatalog reads modules from.
func contentSource(v *viper.Viper) string {
	if dir := v.GetString("content-dir"); dir != "" {
		return dir
	}
	return "embedded"
}
