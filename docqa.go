package docqa

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/vmaslov/docqa/core/answer"
	"github.com/vmaslov/docqa/core/pipeline"
	"github.com/vmaslov/docqa/core/retrieval"
	"github.com/vmaslov/docqa/database"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
	loadSql "github.com/vmaslov/docqa/sql"
)

// DocQA provides a unified interface to document ingestion, retrieval and
// answer composition
type DocQA struct {
	DB        *helper.Database
	Documents *database.DocumentsDBHandler
	Chunks    *database.ChunksDBHandler
	Pipeline  *pipeline.Pipeline   // Optional chunking pipeline
	Engine    *retrieval.Engine    // Multi-stage retrieval engine
	Assembler *retrieval.Assembler // Context window assembler
	Answerer  *answer.Answerer     // Set via SetComposer
	// Logging
	log *slog.Logger
}

// dbStore combines both handlers into the read path the retrieval engine needs.
type dbStore struct {
	*database.ChunksDBHandler
	*database.DocumentsDBHandler
}

// NewDocQA creates a new DocQA instance with all handlers initialized
func NewDocQA(config *helper.DatabaseConfiguration, embeddingDim int) (*DocQA, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("docqa", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create handlers in the correct order (documents first, chunks reference them)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	qa := &DocQA{
		DB:        db,
		Documents: documents,
		Chunks:    chunks,
		log:       logger,
	}

	store := &dbStore{chunks, documents}

	// The embedder is resolved at query time so that a missing pipeline
	// degrades the vector stages instead of failing the whole search.
	qa.Engine = retrieval.NewEngine(store, func(text string) ([]float32, error) {
		if qa.Pipeline == nil || qa.Pipeline.Embedder == nil {
			return nil, fmt.Errorf("pipeline with embedder not set, use SetPipeline() first")
		}
		return qa.Pipeline.Embedder(text)
	}, logger)
	qa.Assembler = retrieval.NewAssembler(store)

	return qa, nil
}

// Close closes the database connection
func (q *DocQA) Close() error {
	if q.DB != nil && q.DB.Instance != nil {
		return q.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking pipeline for document processing
func (q *DocQA) SetPipeline(pipeline *pipeline.Pipeline) {
	q.Pipeline = pipeline
}

// UseDefaultPipeline sets up the default chunking and embedding pipeline.
// This uses the boundary-aware chunker with 1500 char chunks and 200 char
// overlap, and the rubert-tiny2 model (312 dimensions).
func (q *DocQA) UseDefaultPipeline() error {
	chunker := pipeline.DefaultChunker()
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	q.Pipeline = pipeline.NewPipeline(chunker, embedder)
	return nil
}

// SetComposer wires an answer composer, enabling Answer
func (q *DocQA) SetComposer(composer answer.Composer) {
	q.Answerer = answer.NewAnswerer(q.Engine, q.Documents, composer, q.log)
}

// ProcessAndInsertDocument processes a document by:
// 1. Inserting the document metadata with status 'pending'
// 2. Advancing it to 'processing' and chunking/embedding the content
// 3. Inserting all chunks and completing the document with the chunk count
// On any processing error the document ends up in status 'failed' with the
// error message stored. The document's Content field is used for processing
// but not stored in the database.
// Returns the number of chunks inserted and any error encountered.
func (q *DocQA) ProcessAndInsertDocument(doc *model.Document) (int, error) {
	if q.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if doc.Content == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document content is empty"))
	}

	// Store content temporarily and clear it before DB insert
	content := doc.Content
	doc.Content = ""
	doc.ContentLength = utf8.RuneCountInString(content)

	// Insert document metadata
	if err := q.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	q.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	doc.Status = model.StatusProcessing
	if err := q.Documents.UpdateDocumentStatus(doc); err != nil {
		return 0, helper.NewError("update document status", err)
	}

	// Process content into chunks
	chunks, err := q.Pipeline.Process(content)
	if err != nil {
		q.failDocument(doc, err)
		return 0, helper.NewError("process chunks", err)
	}

	q.log.Info("Processed document into chunks", slog.Int("num_chunks", len(chunks)), slog.String("document_id", doc.RID.String()))

	// Insert all chunks
	for i, chunk := range chunks {
		chunk.DocumentID = doc.ID
		if err := q.Chunks.InsertChunk(chunk); err != nil {
			q.failDocument(doc, err)
			return i, helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	now := time.Now()
	doc.Status = model.StatusCompleted
	doc.ChunksCount = len(chunks)
	doc.ProcessedAt = &now
	if err := q.Documents.UpdateDocumentStatus(doc); err != nil {
		return len(chunks), helper.NewError("update document status", err)
	}

	return len(chunks), nil
}

// failDocument marks a document as failed, keeping the original error for
// the caller. A failing status update is only logged.
func (q *DocQA) failDocument(doc *model.Document, cause error) {
	doc.Status = model.StatusFailed
	doc.ErrorMessage = cause.Error()
	if err := q.Documents.UpdateDocumentStatus(doc); err != nil {
		q.log.Error("failed to mark document as failed", slog.String("document_id", doc.RID.String()), slog.String("error", err.Error()))
	}
}

// Search runs the multi-stage retrieval over the document base. It never
// returns an error: stage failures degrade to later stages and ultimately
// to an empty result list.
func (q *DocQA) Search(ctx context.Context, question string, config *model.SearchConfig) []*model.SearchResult {
	return q.Engine.Search(ctx, question, config)
}

// SearchWithContext runs the multi-stage retrieval and expands each of the
// best results into a window of neighboring chunks.
func (q *DocQA) SearchWithContext(ctx context.Context, question string, config *model.SearchConfig) ([]*retrieval.ContextWindow, error) {
	if config == nil {
		config = model.DefaultSearchConfig()
	}

	results := q.Engine.Search(ctx, question, config)

	topChunks := config.TopChunks
	if topChunks <= 0 || topChunks > len(results) {
		topChunks = len(results)
	}

	windows := make([]*retrieval.ContextWindow, 0, topChunks)
	for _, result := range results[:topChunks] {
		window, err := q.Assembler.Expand(result.DocumentID, result.ChunkIndex, config.ContextRadius)
		if err != nil {
			return nil, helper.NewError("expand context", err)
		}
		windows = append(windows, window)
	}

	return windows, nil
}

// Answer answers a question using retrieval plus the configured composer
func (q *DocQA) Answer(ctx context.Context, question string, config *model.SearchConfig) (*model.AnswerResult, error) {
	if q.Answerer == nil {
		return nil, helper.NewError("answer", fmt.Errorf("composer not set, use SetComposer() first"))
	}
	return q.Answerer.Answer(ctx, question, config), nil
}

// AnalyzeDocumentKeywords extracts the key terms and specialized topics of an
// ingested document from the full text of its chunks.
func (q *DocQA) AnalyzeDocumentKeywords(documentID int64) ([]string, error) {
	return q.Engine.AnalyzeDocumentKeywords(documentID)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (q *DocQA) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return q.Chunks.ChangeIndexType(ctx, indexType, params)
}
