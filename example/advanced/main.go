package main

import (
	"context"
	"fmt"
	"log"

	"github.com/vmaslov/docqa"
	"github.com/vmaslov/docqa/core/retrieval"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
)

const payrollContent = `Положение об оплате труда работников организации.

Заработная плата выплачивается работникам два раза в месяц. Аванс выплачивается
27 числа текущего месяца, окончательный расчет 12 числа месяца, следующего за
отчетным. Выплата производится безналичным переводом на банковскую карту.

Размер аванса составляет сорок процентов от должностного оклада работника.
При совпадении дня выплаты с выходным или нерабочим праздничным днем выплата
производится накануне этого дня.

Ежемесячная премия начисляется по результатам работы подразделения и
выплачивается вместе с окончательным расчетом.`

const vacationContent = `Положение о порядке предоставления отпусков.

Ежегодный оплачиваемый отпуск предоставляется работникам продолжительностью
28 календарных дней. По соглашению сторон отпуск может быть разделен на части,
при этом хотя бы одна из частей должна быть не менее 14 календарных дней.

График отпусков утверждается работодателем не позднее чем за две недели до
наступления календарного года. Отпускные выплачиваются не позднее чем за три
дня до начала отпуска.

Отпуск без сохранения заработной платы предоставляется по семейным
обстоятельствам по письменному заявлению работника.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
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

	if err := q.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Ingest multiple documents
	docs := []*model.Document{
		{
			Title:    "Положение об оплате труда",
			Source:   "polozhenie_ob_oplate_truda.pdf",
			Content:  payrollContent,
			Metadata: model.Metadata{"department": "HR"},
		},
		{
			Title:    "Положение об отпусках",
			Source:   "polozhenie_ob_otpuskah.pdf",
			Content:  vacationContent,
			Metadata: model.Metadata{"department": "HR"},
		},
	}

	fmt.Println("=== Ingesting Documents ===")
	for _, doc := range docs {
		numChunks, err := q.ProcessAndInsertDocument(doc)
		if err != nil {
			log.Fatalf("Failed to process and insert '%s': %v", doc.Title, err)
		}
		fmt.Printf("'%s' (RID: %s): %d chunks\n", doc.Title, doc.RID, numChunks)
	}

	ctx := context.Background()

	// 1. Ranked multi-stage search
	fmt.Println("\n=== 1. Ranked Search ===")
	config := model.DefaultSearchConfig()
	config.Limit = 5
	printResults(q.Search(ctx, "Когда выплачивается зарплата?", config))

	// 2. The payroll boost rule promotes chunks naming the payout days
	fmt.Println("\n=== 2. Boosted Strategy Tags ===")
	for _, result := range q.Search(ctx, "Когда выплачивается аванс?", config) {
		fmt.Printf("strategy=%-16s similarity=%.2f\n", result.Strategy, result.Similarity)
	}

	// 3. Custom boost rule for vacation duration questions
	fmt.Println("\n=== 3. Custom Boost Rule ===")
	rules := retrieval.DefaultBoostRules()
	rules = append(rules, retrieval.BoostRule{
		Name:            "vacation_duration",
		Triggers:        []string{"отпуск", "отдых"},
		RequiredMarkers: []string{"28", "календарных"},
		Threshold:       0.3,
		Bonus:           0.15,
		Limit:           3,
	})
	q.Engine.SetBoostRules(rules)
	printResults(q.Search(ctx, "Сколько дней отпуска положено?", config))

	// 4. Context expansion around the best hits
	fmt.Println("\n=== 4. Context Windows ===")
	windows, err := q.SearchWithContext(ctx, "Когда выплачиваются отпускные?", config)
	if err != nil {
		log.Fatalf("Contextual search failed: %v", err)
	}
	for i, window := range windows {
		fmt.Printf("\nWindow %d (center chunk %d, %d chunks):\n", i+1, window.CenterIndex, len(window.Chunks))
		text := window.Text
		if len([]rune(text)) > 200 {
			text = string([]rune(text)[:200]) + "..."
		}
		fmt.Println(text)
	}

	// 5. Document-level keyword analysis
	fmt.Println("\n=== 5. Document Keywords ===")
	for _, doc := range docs {
		keywords, err := q.AnalyzeDocumentKeywords(doc.ID)
		if err != nil {
			log.Fatalf("Keyword analysis failed for '%s': %v", doc.Title, err)
		}
		fmt.Printf("'%s': %v\n", doc.Title, keywords)
	}

	// 6. Index type switching
	fmt.Println("\n=== 6. Changing Index Type ===")
	err = q.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{
		"lists": 100,
	})
	if err != nil {
		log.Printf("Warning: Index change failed (this is okay for small datasets): %v", err)
	} else {
		fmt.Println("Switched to IVFFlat index")
	}

	err = q.ChangeIndexType(ctx, "hnsw", map[string]interface{}{
		"m":               16,
		"ef_construction": 64,
	})
	if err != nil {
		log.Printf("Warning: Index change failed: %v", err)
	} else {
		fmt.Println("Switched back to HNSW index")
	}

	fmt.Println("\n=== Advanced Example Completed Successfully! ===")
}

func printResults(results []*model.SearchResult) {
	fmt.Printf("Found %d results:\n", len(results))
	for i, result := range results {
		if i >= 3 {
			break // Show only first 3
		}
		content := result.Content
		if len([]rune(content)) > 80 {
			content = string([]rune(content)[:80]) + "..."
		}
		fmt.Printf("\n  Result %d:\n", i+1)
		fmt.Printf("    Similarity: %.4f\n", result.Similarity)
		fmt.Printf("    Strategy: %s\n", result.Strategy)
		fmt.Printf("    Content: %s\n", content)
	}
}
