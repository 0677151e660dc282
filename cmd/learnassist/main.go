package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"learnassist/internal/config"
	"learnassist/internal/ingest"
	"learnassist/internal/logger"
	"learnassist/internal/quiz"
	"learnassist/internal/service"
	"learnassist/internal/session"
	"learnassist/internal/summarizer"
	"learnassist/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/learnassist/config.yaml if not provided)")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: learnassist [--config=config.yaml] [textbook.pdf]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	pdfPath := flag.Arg(0)

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, cfgPath, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting", zap.String("config", cfgPath),
		zap.String("embedder", cfg.Embedder.Type),
		zap.String("vector_store", cfg.VectorStore.Type),
		zap.String("generator", cfg.Generator.Type),
	)

	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		fatalf("embedder init failed: %v", err)
	}
	ch, err := newChunker(cfg.Chunker)
	if err != nil {
		fatalf("chunker init failed: %v", err)
	}
	stores, err := newStoreFactory(cfg.VectorStore)
	if err != nil {
		fatalf("vector store init failed: %v", err)
	}
	gen, err := newGenerator(cfg.Generator)
	if err != nil {
		fatalf("generator init failed: %v", err)
	}

	ingestor := ingest.NewIngestor(ingest.NewPDFExtractor(), ch, cfg.Chunker.MaxPages, log.Named("ingest"))
	svc := service.NewRAGService(emb, stores, gen, service.Options{
		TopK:        cfg.Retrieval.TopK,
		Temperature: cfg.Generator.Temperature,
	}, log.Named("service"))
	orchestrator := quiz.NewOrchestrator(gen, cfg.Generator.Temperature, log.Named("quiz"))
	ctrl := session.NewController(
		session.NewStore(12*time.Hour, log.Named("store")),
		ingestor,
		svc,
		orchestrator,
		summarizer.NewFrequencySummarizer(),
		log.Named("session"),
	)

	ctx := context.Background()
	sess := ctrl.Start()
	final, err := tea.NewProgram(tui.New(ctx, ctrl, sess, pdfPath), tea.WithAltScreen()).Run()
	if m, ok := final.(tui.Model); ok {
		// releases the index of whichever session was active at exit
		ctrl.Restart(ctx, m.SessionID())
	}
	if err != nil {
		log.Error("tui exited", zap.Error(err))
		fatalf("%v", err)
	}
}

func fatalf(format string, args ...any) {
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}
