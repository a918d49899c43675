package main

import (
	"context"
	"flag"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/kpauljoseph/pdfannotate/internal/config"
	"github.com/kpauljoseph/pdfannotate/internal/pdf"
	"github.com/kpauljoseph/pdfannotate/internal/script"
	"github.com/kpauljoseph/pdfannotate/internal/session"
	"github.com/kpauljoseph/pdfannotate/internal/store"
	"github.com/kpauljoseph/pdfannotate/internal/upload"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
	"github.com/kpauljoseph/pdfannotate/pkg/version"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML or TOML config file (optional)")
	pdfPath := flag.String("pdf", "", "PDF file to annotate")
	scriptPath := flag.String("script", "", "YAML gesture script to replay")
	importPath := flag.String("import", "", "annotation export to load before the script runs")
	outputDir := flag.String("output-dir", "", "directory for the annotation export (overrides config)")
	archivePath := flag.String("archive", "", "SQLite archive for autosave (overrides config)")
	resume := flag.Bool("resume", false, "restore the archived annotations of this PDF")
	snapshotPath := flag.String("snapshot", "", "write the final page with its annotations as PNG")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	debug := flag.Bool("debug", false, "enable debug mode with trace logging")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Print(version.GetDetailedVersionInfo())
		return
	}

	log := logger.New(logger.WithPrefix("[pdfannotate] "))
	log.SetVerbose(*verbose)

	if *debug {
		log.SetLevel(logger.LevelTrace)
	}

	if *verbose {
		log.Debug("Verbose logging enabled")
	}
	log.Debug("Starting %s", version.GetVersionInfo())

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal("Error loading config: %v", err)
		}
	}
	log.SetPrefix(cfg.LogPrefix)

	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *archivePath != "" {
		cfg.ArchivePath = *archivePath
	}

	if *pdfPath == "" {
		log.Fatal("Please provide a PDF file using -pdf")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	src, err := upload.FromFile(*pdfPath)
	if err != nil {
		log.Fatal("Error reading PDF: %v", err)
	}

	opts := []session.Option{
		session.WithLogger(log),
		session.WithDefaults(cfg.ToolState()),
		session.WithInitialScale(cfg.Viewport.InitialScale),
		session.WithTextDefaults(cfg.Text.Placeholder, cfg.Text.FontSize),
	}

	if cfg.ArchivePath != "" {
		archive, err := store.OpenArchive(cfg.ArchivePath)
		if err != nil {
			log.Fatal("Error opening archive: %v", err)
		}
		defer archive.Close()
		opts = append(opts, session.WithArchive(archive))
		log.Debug("Autosaving to %s", cfg.ArchivePath)
	} else if *resume {
		log.Fatal("-resume needs an archive (-archive or archive_path)")
	}

	sess, err := session.New(pdf.NewDocument(log), opts...)
	if err != nil {
		log.Fatal("Error creating session: %v", err)
	}
	defer sess.Close()

	if err := sess.Open(ctx, src); err != nil {
		log.Fatal("Error opening %s: %v", src.Name, err)
	}

	if *resume {
		n, err := sess.Resume()
		if err != nil {
			log.Fatal("Error resuming annotations: %v", err)
		}
		log.Info("Resumed %d annotations", n)
	}

	if *importPath != "" {
		data, err := os.ReadFile(*importPath)
		if err != nil {
			log.Fatal("Error reading %s: %v", *importPath, err)
		}
		report, err := sess.Import(data)
		if err != nil {
			log.Fatal("Error importing %s: %v", *importPath, err)
		}
		log.Info("Imported %d annotations (%d skipped)", report.Loaded, report.Skipped)
	}

	if *scriptPath != "" {
		sc, err := script.Load(*scriptPath)
		if err != nil {
			log.Fatal("Error loading script: %v", err)
		}
		if err := sc.Run(ctx, sess, log); err != nil {
			log.Fatal("Error running script: %v", err)
		}
	}

	data, name, err := sess.Export()
	if err != nil {
		log.Fatal("Error exporting annotations: %v", err)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		log.Fatal("Error creating output directory: %v", err)
	}
	exportPath := filepath.Join(cfg.OutputDir, name)
	if err := os.WriteFile(exportPath, data, 0644); err != nil {
		log.Fatal("Error writing %s: %v", exportPath, err)
	}

	if *snapshotPath != "" {
		if err := writeSnapshot(sess, *snapshotPath); err != nil {
			log.Fatal("Error writing snapshot: %v", err)
		}
		log.Debug("Snapshot saved to %s", *snapshotPath)
	}

	vp := sess.Viewport()
	log.Info("Annotation complete:")
	log.Info("- Document: %s (%d pages)", src.Name, sess.PageCount())
	log.Info("- Annotations: %d", len(sess.Records()))
	log.Info("- Final view: page %d at %.0f%%, %d°", vp.CurrentPage, vp.Scale*100, vp.Rotation)
	log.Info("- Export saved to: %s", exportPath)
}

func writeSnapshot(sess *session.Session, path string) error {
	img, err := sess.Snapshot()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
