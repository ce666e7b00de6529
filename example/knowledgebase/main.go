package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vmaslov/docqa"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
)

// startPostgresContainer starts a PostgreSQL container with a bind-mounted
// data directory so the ingested knowledge base persists between runs.
func startPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	dataDir := "./data"
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create data directory: %w", err)
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get absolute path for data directory: %w", err)
	}

	// Check if database already exists (data directory has PG_VERSION file)
	pgVersionFile := filepath.Join(absDataDir, "PG_VERSION")
	_, err = os.Stat(pgVersionFile)
	dbExists := err == nil

	// When database already exists, PostgreSQL doesn't re-initialize,
	// so the ready message only appears once instead of twice
	waitOccurrences := 2
	if dbExists {
		waitOccurrences = 1
		fmt.Printf("Using existing persistent database in: %s\n", absDataDir)
	} else {
		fmt.Printf("Creating new persistent database in: %s\n", absDataDir)
	}

	options := []testcontainers.ContainerCustomizer{
		postgres.WithDatabase("database"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(waitOccurrences),
		),
		testcontainers.WithHostConfigModifier(func(hc *container.HostConfig) {
			hc.Mounts = append(hc.Mounts, mount.Mount{
				Type:   mount.TypeBind,
				Source: absDataDir,
				Target: "/var/lib/postgresql/data",
			})
		}),
	}

	pgContainer, err := postgres.Run(
		ctx,
		"pgvector/pgvector:pg17",
		options...,
	)
	if err != nil {
		return nil, "", fmt.Errorf("error starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", fmt.Errorf("error getting connection string: %w", err)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, "", fmt.Errorf("error parsing connection string: %v", err)
	}

	return pgContainer.Terminate, u.Port(), nil
}

func main() {
	docsDir := "./docs"
	if len(os.Args) > 1 {
		docsDir = os.Args[1]
	}

	// Start a PostgreSQL container with persistence
	teardown, dbPort, err := startPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	q, err := docqa.NewDocQA(dbConfig, 312)
	if err != nil {
		log.Fatalf("Failed to create docqa: %v", err)
	}
	defer q.Close()

	fmt.Println("Setting up the processing pipeline...")
	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Check existing documents to avoid re-processing on repeated runs
	existingDocs, err := checkExistingDocuments(q)
	if err != nil {
		log.Printf("Warning: could not check existing documents: %v", err)
		existingDocs = make(map[string]bool)
	}
	if len(existingDocs) > 0 {
		fmt.Printf("Found %d existing documents in database\n", len(existingDocs))
	}

	// Ingest every text file of the docs directory
	entries, err := os.ReadDir(docsDir)
	if err != nil {
		log.Fatalf("Failed to read docs directory %s: %v", docsDir, err)
	}

	totalChunks := 0
	skipped := 0
	processed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".md" {
			continue
		}

		path := filepath.Join(docsDir, entry.Name())
		if existingDocs[path] {
			fmt.Printf("Skipping %s - already processed\n", entry.Name())
			skipped++
			continue
		}

		doc, err := model.NewDocumentFromFile(path, model.Metadata{
			"filename": entry.Name(),
		})
		if err != nil {
			log.Printf("Warning: failed to read %s: %v, skipping...", entry.Name(), err)
			continue
		}

		fmt.Printf("Processing %s...\n", doc.Title)
		numChunks, err := q.ProcessAndInsertDocument(doc)
		if err != nil {
			log.Printf("Warning: failed to process %s: %v, skipping...", doc.Title, err)
			continue
		}

		fmt.Printf("  Inserted %d chunks from %s\n", numChunks, doc.Title)
		totalChunks += numChunks
		processed++
	}

	fmt.Printf("\nKnowledge base status:\n")
	fmt.Printf("  - Processed: %d documents (%d chunks)\n", processed, totalChunks)
	fmt.Printf("  - Skipped (already in DB): %d documents\n", skipped)

	// Interactive question loop
	fmt.Println("\nAsk a question (empty line to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()
	config := model.DefaultSearchConfig()
	config.Limit = 5

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}

		windows, err := q.SearchWithContext(ctx, question, config)
		if err != nil {
			log.Printf("Search error: %v", err)
			continue
		}
		if len(windows) == 0 {
			fmt.Println("Nothing found.")
			continue
		}

		for i, window := range windows {
			if i >= 2 {
				break // Show only the two best windows
			}
			text := window.Text
			if len([]rune(text)) > 400 {
				text = string([]rune(text)[:400]) + "..."
			}
			fmt.Printf("\n[%d] %s\n", i+1, strings.ReplaceAll(text, "\n", "\n    "))
		}
		fmt.Println()
	}

	fmt.Println("Done.")
}

// checkExistingDocuments returns the sources of all stored documents for
// quick lookup.
func checkExistingDocuments(q *docqa.DocQA) (map[string]bool, error) {
	docs, err := q.Documents.SelectAllDocuments(nil, 1000)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	existingDocs := make(map[string]bool)
	for _, doc := range docs {
		existingDocs[doc.Source] = true
	}
	return existingDocs, nil
}
