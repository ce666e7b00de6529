package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmaslov/docqa/model"
)

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		require.NotNil(t, documentsDbHandler.db, "Expected NewDocumentsDBHandler to have a non-nil database instance")
		require.NotNil(t, documentsDbHandler.db.Instance, "Expected NewDocumentsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestDocumentsInsert(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	t.Run("Insert document", func(t *testing.T) {
		doc := &model.Document{
			Title:         "Правила внутреннего распорядка",
			Source:        "rules.docx",
			ContentLength: 12345,
			Metadata:      map[string]interface{}{"author": "Test Author", "year": 2024},
		}

		err := documentsDbHandler.InsertDocument(doc)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotZero(t, doc.ID, "Expected inserted document to have an ID")
		assert.NotEmpty(t, doc.RID, "Expected inserted document to have a RID")
		assert.Equal(t, model.StatusPending, doc.Status, "Expected new document to start as pending")
		assert.Equal(t, 12345, doc.ContentLength, "Expected content length to round-trip")
		assert.Nil(t, doc.ProcessedAt, "Expected new document to have no processed timestamp")
		assert.WithinDuration(t, doc.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.WithinDuration(t, doc.UpdatedAt, time.Now(), 2*time.Second, "Expected UpdatedAt to be set")

		// Cleanup
		documentsDbHandler.DeleteDocument(doc.ID)
	})
}

func TestDocumentsGet(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	// Create a document
	doc := &model.Document{
		Title:    "Test Document",
		Source:   "test.txt",
		Metadata: map[string]interface{}{"key": "value"},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	t.Run("Select by ID", func(t *testing.T) {
		retrievedDoc, err := documentsDbHandler.SelectDocument(doc.ID)
		assert.NoError(t, err, "Expected SelectDocument to not return an error")
		assert.NotNil(t, retrievedDoc, "Expected SelectDocument to return a non-nil document")
		assert.Equal(t, doc.ID, retrievedDoc.ID, "Expected document IDs to match")
		assert.Equal(t, doc.Title, retrievedDoc.Title, "Expected titles to match")
		assert.Equal(t, doc.Source, retrievedDoc.Source, "Expected sources to match")
	})

	t.Run("Select by RID", func(t *testing.T) {
		retrievedDoc, err := documentsDbHandler.SelectDocumentByRID(doc.RID)
		assert.NoError(t, err, "Expected SelectDocumentByRID to not return an error")
		assert.Equal(t, doc.ID, retrievedDoc.ID, "Expected document IDs to match")
	})

	t.Run("Select missing document", func(t *testing.T) {
		_, err := documentsDbHandler.SelectDocument(999999)
		assert.Error(t, err, "Expected error for missing document")
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.ID)
}

func TestDocumentsGetAll(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	// Create multiple documents
	docCount := 5
	docs := make([]*model.Document, docCount)
	for i := 0; i < docCount; i++ {
		docs[i] = &model.Document{
			Title:    "Test Document " + string(rune('A'+i)),
			Source:   "test.txt",
			Metadata: map[string]interface{}{},
		}
		err = documentsDbHandler.InsertDocument(docs[i])
		require.NoError(t, err)
	}

	// Test SelectAllDocuments
	retrievedDocs, err := documentsDbHandler.SelectAllDocuments(nil, 10)
	assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
	assert.GreaterOrEqual(t, len(retrievedDocs), docCount, "Expected to retrieve at least the inserted documents")

	// Test pagination
	pageLength := 3
	paginatedDocs, err := documentsDbHandler.SelectAllDocuments(nil, pageLength)
	assert.NoError(t, err, "Expected SelectAllDocuments to not return an error")
	assert.LessOrEqual(t, len(paginatedDocs), pageLength, "Expected at most pageLength documents")

	// Cleanup
	for _, doc := range docs {
		documentsDbHandler.DeleteDocument(doc.ID)
	}
}

func TestDocumentsUpdateStatus(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	doc := &model.Document{
		Title:    "Test Document",
		Source:   "test.txt",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	t.Run("Advance to processing", func(t *testing.T) {
		doc.Status = model.StatusProcessing
		err := documentsDbHandler.UpdateDocumentStatus(doc)
		assert.NoError(t, err, "Expected UpdateDocumentStatus to not return an error")
		assert.Equal(t, model.StatusProcessing, doc.Status, "Expected status to be processing")
		assert.Nil(t, doc.ProcessedAt, "Expected no processed timestamp while processing")
	})

	t.Run("Complete with chunk count and timestamp", func(t *testing.T) {
		now := time.Now()
		doc.Status = model.StatusCompleted
		doc.ChunksCount = 7
		doc.ProcessedAt = &now

		err := documentsDbHandler.UpdateDocumentStatus(doc)
		assert.NoError(t, err, "Expected UpdateDocumentStatus to not return an error")
		assert.Equal(t, model.StatusCompleted, doc.Status, "Expected status to be completed")
		assert.Equal(t, 7, doc.ChunksCount, "Expected chunk count to be stored")
		require.NotNil(t, doc.ProcessedAt, "Expected processed timestamp to be set")
		assert.WithinDuration(t, now, *doc.ProcessedAt, 2*time.Second, "Expected processed timestamp to round-trip")
	})

	t.Run("Fail with error message", func(t *testing.T) {
		doc.Status = model.StatusFailed
		doc.ErrorMessage = "embedding provider unavailable"

		err := documentsDbHandler.UpdateDocumentStatus(doc)
		assert.NoError(t, err, "Expected UpdateDocumentStatus to not return an error")
		assert.Equal(t, model.StatusFailed, doc.Status, "Expected status to be failed")
		assert.Equal(t, "embedding provider unavailable", doc.ErrorMessage, "Expected error message to be stored")
	})

	// Cleanup
	documentsDbHandler.DeleteDocument(doc.ID)
}

func TestDocumentsDelete(t *testing.T) {
	database := initDB(t)

	documentsDbHandler, chunksDbHandler := initHandlers(t, database)

	doc := &model.Document{
		Title:    "Test Document",
		Source:   "test.txt",
		Metadata: map[string]interface{}{},
	}
	err := documentsDbHandler.InsertDocument(doc)
	require.NoError(t, err)

	chunk := &model.Chunk{
		DocumentID:    doc.ID,
		ChunkIndex:    0,
		Content:       "Содержание первого фрагмента документа.",
		ContentLength: 39,
		Embedding:     []float32{1, 0, 0},
		Metadata:      map[string]interface{}{},
	}
	err = chunksDbHandler.InsertChunk(chunk)
	require.NoError(t, err)

	t.Run("Delete cascades to chunks", func(t *testing.T) {
		err := documentsDbHandler.DeleteDocument(doc.ID)
		assert.NoError(t, err, "Expected DeleteDocument to not return an error")

		_, err = documentsDbHandler.SelectDocument(doc.ID)
		assert.Error(t, err, "Expected deleted document to be gone")

		chunks, err := chunksDbHandler.SelectChunksByDocument(doc.ID)
		assert.NoError(t, err, "Expected SelectChunksByDocument to not return an error")
		assert.Empty(t, chunks, "Expected chunks to be deleted with the document")
	})
}
