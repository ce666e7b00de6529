package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/vmaslov/docqa"
	"github.com/vmaslov/docqa/core/answer"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
)

const sampleContent = `Положение об оплате труда работников.

Заработная плата выплачивается работникам два раза в месяц: аванс 27 числа
текущего месяца и окончательный расчет 12 числа месяца, следующего за отчетным.
Выплата производится безналичным переводом на банковскую карту работника.

Ежегодный оплачиваемый отпуск предоставляется работникам продолжительностью
28 календарных дней. График отпусков утверждается не позднее чем за две недели
до начала календарного года. Отпускные выплачиваются не позднее чем за три дня
до начала отпуска.

При временной нетрудоспособности работнику выплачивается пособие на основании
листка нетрудоспособности. Первые три дня оплачиваются за счет работодателя.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
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

	// Set up the default pipeline (boundary-aware chunking + local embeddings)
	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	doc := &model.Document{
		Title:   "Положение об оплате труда",
		Source:  "basic_example",
		Content: sampleContent,
		Metadata: model.Metadata{
			"department": "HR",
		},
	}

	fmt.Println("Ingesting document...")
	numChunks, err := q.ProcessAndInsertDocument(doc)
	if err != nil {
		log.Fatalf("Failed to process and insert document: %v", err)
	}
	fmt.Printf("Document inserted with ID: %s\n", doc.RID)
	fmt.Printf("Inserted %d chunks\n", numChunks)

	question := "Когда выплачивается зарплата?"
	fmt.Printf("\nQuestion: %s\n", question)

	config := model.DefaultSearchConfig()
	config.Limit = 5

	results := q.Search(context.Background(), question, config)

	fmt.Printf("\nFound %d chunks:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Chunk %d ---\n", i+1)
		fmt.Printf("Similarity: %.4f\n", result.Similarity)
		fmt.Printf("Strategy: %s\n", result.Strategy)
		fmt.Printf("Content: %s\n", result.Content)
	}

	// With an OpenAI-compatible API key a full answer can be composed.
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		composer, err := answer.NewOpenAIComposer(answer.OpenAIComposerConfig{APIKey: apiKey})
		if err != nil {
			log.Fatalf("Failed to create composer: %v", err)
		}
		q.SetComposer(composer)

		result, err := q.Answer(context.Background(), question, config)
		if err != nil {
			log.Fatalf("Failed to answer: %v", err)
		}
		fmt.Printf("\nAnswer: %s\n", result.Answer)
		for _, source := range result.Sources {
			fmt.Printf("Source: %s\n", source.Title)
		}
	}

	fmt.Println("\nBasic example completed successfully!")
}
