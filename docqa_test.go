package docqa

import (
	"context"
	"log"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/vmaslov/docqa/core/pipeline"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

// testEmbedder creates a simple deterministic embedder for testing
func testEmbedder(dimension int) pipeline.EmbedFunc {
	return func(text string) ([]float32, error) {
		embedding := make([]float32, dimension)
		for i := 0; i < dimension; i++ {
			embedding[i] = float32((len(text)+i)%100) / 100.0
		}
		return embedding, nil
	}
}

// testPipeline builds a small-chunk pipeline so short test documents still
// produce several chunks.
func testPipeline() *pipeline.Pipeline {
	return pipeline.NewPipeline(pipeline.SplitChunker(300, 50), testEmbedder(3))
}

func initDocQA(t *testing.T) *DocQA {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")

	qa, err := NewDocQA(dbConfig, 3)
	require.NoError(t, err, "failed to create DocQA")
	require.NotNil(t, qa, "expected DocQA to be non-nil")

	t.Cleanup(func() {
		qa.Close()
	})

	return qa
}

// staticComposer is a Composer test double with a fixed reply.
type staticComposer struct {
	response *model.LLMResponse
	err      error
}

func (c *staticComposer) Generate(ctx context.Context, prompt string) (*model.LLMResponse, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.response, nil
}

func TestNewDocQA(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewDocQA", func(t *testing.T) {
		qa, err := NewDocQA(dbConfig, 3)
		require.NoError(t, err, "Expected NewDocQA to not return an error")
		require.NotNil(t, qa, "Expected NewDocQA to return a non-nil instance")
		assert.NotNil(t, qa.DB, "Expected DocQA to have a database instance")
		assert.NotNil(t, qa.Documents, "Expected DocQA to have a documents handler")
		assert.NotNil(t, qa.Chunks, "Expected DocQA to have a chunks handler")
		assert.NotNil(t, qa.Engine, "Expected DocQA to have a retrieval engine")
		assert.NotNil(t, qa.Assembler, "Expected DocQA to have a context assembler")
		assert.Nil(t, qa.Pipeline, "Expected pipeline to be nil initially")
		assert.Nil(t, qa.Answerer, "Expected answerer to be nil before SetComposer")

		// Cleanup
		err = qa.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("DocQA with nil database handles Close gracefully", func(t *testing.T) {
		qa := &DocQA{}

		err := qa.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestSetPipeline(t *testing.T) {
	qa := initDocQA(t)

	t.Run("Set pipeline successfully", func(t *testing.T) {
		p := testPipeline()

		qa.SetPipeline(p)

		assert.NotNil(t, qa.Pipeline, "Expected pipeline to be set")
		assert.Equal(t, p, qa.Pipeline, "Expected pipeline to match")
	})

	t.Run("Replace existing pipeline", func(t *testing.T) {
		pipeline1 := testPipeline()
		pipeline2 := testPipeline()

		qa.SetPipeline(pipeline1)
		assert.Equal(t, pipeline1, qa.Pipeline, "Expected first pipeline to be set")

		qa.SetPipeline(pipeline2)
		assert.Equal(t, pipeline2, qa.Pipeline, "Expected second pipeline to replace first")
	})

	t.Run("Set pipeline to nil", func(t *testing.T) {
		qa.SetPipeline(nil)

		assert.Nil(t, qa.Pipeline, "Expected pipeline to be nil")
	})
}

func TestProcessAndInsertDocument(t *testing.T) {
	qa := initDocQA(t)
	qa.SetPipeline(testPipeline())

	content := strings.Repeat("Ежегодный оплачиваемый отпуск предоставляется работнику продолжительностью 28 календарных дней. ", 10)

	t.Run("Process and insert document successfully", func(t *testing.T) {
		doc := &model.Document{
			Title:   "Положение об отпусках",
			Source:  "vacation.docx",
			Content: content,
			Metadata: model.Metadata{
				"test": "value",
			},
		}

		numChunks, err := qa.ProcessAndInsertDocument(doc)

		assert.NoError(t, err, "Expected ProcessAndInsertDocument to not return an error")
		assert.Greater(t, numChunks, 1, "Expected the content to be split into several chunks")
		assert.NotZero(t, doc.ID, "Expected document ID to be set")
		assert.Equal(t, "", doc.Content, "Expected content to be cleared after processing")
		assert.Equal(t, model.StatusCompleted, doc.Status, "Expected document to be completed")
		assert.Equal(t, numChunks, doc.ChunksCount, "Expected chunk count to match inserted chunks")
		assert.NotNil(t, doc.ProcessedAt, "Expected processed timestamp to be set")
		assert.Greater(t, doc.ContentLength, 0, "Expected content length to be recorded")

		chunks, err := qa.Chunks.SelectChunksByDocument(doc.ID)
		require.NoError(t, err)
		assert.Len(t, chunks, numChunks, "Expected all chunks to be persisted")

		// Cleanup
		qa.Documents.DeleteDocument(doc.ID)
	})

	t.Run("Error when pipeline not set", func(t *testing.T) {
		qaNoPipeline := initDocQA(t)

		doc := &model.Document{
			Title:   "Test Document",
			Source:  "test",
			Content: "Some content",
		}

		numChunks, err := qaNoPipeline.ProcessAndInsertDocument(doc)

		assert.Error(t, err, "Expected error when pipeline not set")
		assert.Equal(t, 0, numChunks, "Expected 0 chunks when error occurs")
		assert.Contains(t, err.Error(), "pipeline not set", "Expected specific error message")
	})

	t.Run("Error when content is empty", func(t *testing.T) {
		doc := &model.Document{
			Title:   "Test Document",
			Source:  "test",
			Content: "",
		}

		numChunks, err := qa.ProcessAndInsertDocument(doc)

		assert.Error(t, err, "Expected error when content is empty")
		assert.Equal(t, 0, numChunks, "Expected 0 chunks when error occurs")
		assert.Contains(t, err.Error(), "content is empty", "Expected specific error message")
	})

	t.Run("Failing embedder marks document as failed", func(t *testing.T) {
		failing := pipeline.NewPipeline(pipeline.SplitChunker(300, 50), func(text string) ([]float32, error) {
			return nil, assert.AnError
		})
		qa.SetPipeline(failing)
		defer qa.SetPipeline(testPipeline())

		doc := &model.Document{
			Title:   "Broken Document",
			Source:  "broken.docx",
			Content: content,
		}

		_, err := qa.ProcessAndInsertDocument(doc)
		assert.Error(t, err, "Expected processing error to propagate")

		stored, err := qa.Documents.SelectDocument(doc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusFailed, stored.Status, "Expected document to be marked failed")
		assert.NotEmpty(t, stored.ErrorMessage, "Expected the error message to be stored")

		// Cleanup
		qa.Documents.DeleteDocument(doc.ID)
	})
}

func TestDocQASearch(t *testing.T) {
	qa := initDocQA(t)
	qa.SetPipeline(testPipeline())

	doc := &model.Document{
		Title:   "Положение об отпусках",
		Source:  "vacation.docx",
		Content: strings.Repeat("Ежегодный оплачиваемый отпуск предоставляется работнику продолжительностью 28 календарных дней. ", 10),
	}
	_, err := qa.ProcessAndInsertDocument(doc)
	require.NoError(t, err)
	defer qa.Documents.DeleteDocument(doc.ID)

	t.Run("Finds relevant chunks", func(t *testing.T) {
		results := qa.Search(context.Background(), "Сколько дней отпуск предоставляется работнику?", nil)

		require.NotEmpty(t, results, "Expected the vacation document to be found")
		assert.Contains(t, results[0].Content, "отпуск", "Expected a vacation chunk first")
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].Similarity, results[i].Similarity, "Expected descending similarity")
		}
	})

	t.Run("Unknown topic returns empty without error", func(t *testing.T) {
		results := qa.Search(context.Background(), "quantum flux capacitor maintenance", nil)

		assert.Empty(t, results, "Expected no results for an unrelated question")
	})
}

func TestSearchWithContext(t *testing.T) {
	qa := initDocQA(t)
	qa.SetPipeline(testPipeline())

	doc := &model.Document{
		Title:   "Положение о командировках",
		Source:  "trips.docx",
		Content: strings.Repeat("Служебная командировка оформляется приказом руководителя. Суточные выплачиваются за каждый день командировки. ", 12),
	}
	_, err := qa.ProcessAndInsertDocument(doc)
	require.NoError(t, err)
	defer qa.Documents.DeleteDocument(doc.ID)

	config := model.DefaultSearchConfig()
	config.TopChunks = 2

	windows, err := qa.SearchWithContext(context.Background(), "Как оформляется командировка?", config)
	require.NoError(t, err, "Expected SearchWithContext to not return an error")
	require.NotEmpty(t, windows, "Expected at least one context window")
	assert.LessOrEqual(t, len(windows), 2, "Expected at most TopChunks windows")

	for _, window := range windows {
		assert.NotEmpty(t, window.Chunks, "Expected window to contain chunks")
		assert.Contains(t, window.Text, "**", "Expected the center chunk to be marked")
	}
}

func TestDocQAAnalyzeDocumentKeywords(t *testing.T) {
	qa := initDocQA(t)
	qa.SetPipeline(testPipeline())

	doc := &model.Document{
		Title:   "Инструкция по охране труда",
		Source:  "safety.docx",
		Content: strings.Repeat("Инструктаж по охране труда проводится ежеквартально для всех работников. ", 10),
	}
	_, err := qa.ProcessAndInsertDocument(doc)
	require.NoError(t, err)
	defer qa.Documents.DeleteDocument(doc.ID)

	t.Run("Extracts frequent words and topics", func(t *testing.T) {
		keywords, err := qa.AnalyzeDocumentKeywords(doc.ID)
		require.NoError(t, err, "Expected keyword analysis to not return an error")
		require.NotEmpty(t, keywords, "Expected keywords for the safety document")

		assert.Equal(t, "инструктаж", keywords[0], "Expected the most frequent word first")
		assert.Contains(t, keywords, "техника_безопасности", "Expected the safety topic label")
		assert.LessOrEqual(t, len(keywords), 15, "Expected the keyword cap to hold")
	})

	t.Run("Unknown document gives no keywords", func(t *testing.T) {
		keywords, err := qa.AnalyzeDocumentKeywords(999999)
		require.NoError(t, err)
		assert.Empty(t, keywords, "Expected no keywords for a missing document")
	})
}

func TestDocQAAnswer(t *testing.T) {
	qa := initDocQA(t)
	qa.SetPipeline(testPipeline())

	doc := &model.Document{
		Title:   "Положение об отпусках",
		Source:  "vacation.docx",
		Content: strings.Repeat("Ежегодный оплачиваемый отпуск предоставляется работнику продолжительностью 28 календарных дней. ", 10),
	}
	_, err := qa.ProcessAndInsertDocument(doc)
	require.NoError(t, err)
	defer qa.Documents.DeleteDocument(doc.ID)

	t.Run("Error when composer not set", func(t *testing.T) {
		_, err := qa.Answer(context.Background(), "Сколько дней отпуск предоставляется работнику?", nil)
		assert.Error(t, err, "Expected error without a composer")
		assert.Contains(t, err.Error(), "composer not set", "Expected specific error message")
	})

	t.Run("Answers with sources", func(t *testing.T) {
		qa.SetComposer(&staticComposer{
			response: &model.LLMResponse{
				Text:       "Отпуск предоставляется продолжительностью 28 календарных дней.",
				Success:    true,
				TokensUsed: 42,
			},
		})

		result, err := qa.Answer(context.Background(), "Сколько дней отпуск предоставляется работнику?", nil)
		require.NoError(t, err, "Expected Answer to not return an error")
		require.NotNil(t, result)
		assert.True(t, result.Success, "Expected a successful answer")
		assert.Contains(t, result.Answer, "28", "Expected the composer text to be returned")
		require.NotEmpty(t, result.Sources, "Expected sources to be resolved")
		assert.Equal(t, "Положение об отпусках", result.Sources[0].Title, "Expected the document title as source")
		assert.Equal(t, 42, result.TokensUsed, "Expected token usage to be passed through")
	})

	t.Run("No results still succeeds", func(t *testing.T) {
		qa.SetComposer(&staticComposer{
			response: &model.LLMResponse{Text: "unused", Success: true},
		})

		result, err := qa.Answer(context.Background(), "quantum flux capacitor maintenance", nil)
		require.NoError(t, err)
		assert.True(t, result.Success, "Expected an empty result set to not be an error")
		assert.Empty(t, result.Sources, "Expected no sources without results")
	})
}
