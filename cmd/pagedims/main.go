package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/kpauljoseph/pdfannotate/internal/scanner"
	"github.com/kpauljoseph/pdfannotate/pkg/logger"
)

func main() {
	pdfPath := flag.String("file", "", "Path to PDF file")
	dir := flag.String("dir", "", "Directory to scan for PDF files")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	if *pdfPath == "" && *dir == "" {
		fmt.Println("Please provide a PDF file path using -file or a directory using -dir")
		os.Exit(1)
	}

	log := logger.New(logger.WithPrefix("[pagedims] "))
	log.SetVerbose(*verbose)

	files := []string{}
	if *pdfPath != "" {
		files = append(files, *pdfPath)
	}
	if *dir != "" {
		found, err := scanner.New(log).FindPDFs(context.Background(), *dir)
		if err != nil {
			fmt.Printf("Error scanning %s: %v\n", *dir, err)
			os.Exit(1)
		}
		files = append(files, found...)
	}

	failed := false
	for _, path := range files {
		fmt.Printf("Analyzing PDF: %s\n", path)

		dims, err := api.PageDimsFile(path)
		if err != nil {
			fmt.Printf("Error getting page dimensions: %v\n", err)
			failed = true
			continue
		}

		for i, dim := range dims {
			fmt.Printf("\nPage %d:\n", i+1)
			fmt.Printf("Dimensions (Width x Height): %.3f x %.3f points\n", dim.Width, dim.Height)
		}
		fmt.Println()
	}

	if failed {
		os.Exit(1)
	}
}
