package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/vmaslov/docqa/helper"
	"github.com/vmaslov/docqa/model"
	loadSql "github.com/vmaslov/docqa/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	UpdateChunkEmbedding(chunk *model.Chunk) error
	DeleteChunksByDocument(documentID int64) (int, error)
	SelectChunk(id int64) (*model.Chunk, error)
	SelectChunksByDocument(documentID int64) ([]*model.Chunk, error)
	SelectChunksByIndexRange(documentID int64, minIndex, maxIndex int) ([]*model.Chunk, error)
	SearchBySimilarity(embedding []float32, filter model.ChunkFilter, limit int) ([]*model.Chunk, error)
	SearchByKeywords(keywords []string, filter model.ChunkFilter, limit int) ([]*model.Chunk, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
// The documents table must already exist for the foreign key.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunk inserts a new chunk
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6)`,
		chunk.DocumentID,
		chunk.ChunkIndex,
		chunk.Content,
		chunk.ContentLength,
		vectorParam(chunk.Embedding),
		chunk.Metadata,
	)

	err := scanChunk(row, chunk)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// UpdateChunkEmbedding replaces the embedding of a chunk
func (h *ChunksDBHandler) UpdateChunkEmbedding(chunk *model.Chunk) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_chunk_embedding($1, $2)`,
		chunk.ID,
		pgvector.NewVector(chunk.Embedding),
	)

	err := scanChunk(row, chunk)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// DeleteChunksByDocument deletes all chunks of a document and returns the
// number of deleted rows
func (h *ChunksDBHandler) DeleteChunksByDocument(documentID int64) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT delete_chunks_by_document($1)`,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int64) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	chunk := &model.Chunk{}
	err := scanChunk(row, chunk)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks of a document ordered by index
func (h *ChunksDBHandler) SelectChunksByDocument(documentID int64) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// SelectChunksByIndexRange retrieves the chunks of a document whose index
// lies in [minIndex, maxIndex], ordered ascending by index
func (h *ChunksDBHandler) SelectChunksByIndexRange(documentID int64, minIndex, maxIndex int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_index_range($1, $2, $3)`,
		documentID,
		minIndex,
		maxIndex,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

// SearchBySimilarity performs filtered cosine similarity search, best match
// first, with Similarity set on each returned chunk
func (h *ChunksDBHandler) SearchBySimilarity(embedding []float32, filter model.ChunkFilter, limit int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4, $5, $6, $7)`,
		pgvector.NewVector(embedding),
		string(filter.Status),
		filter.MinContentLength,
		filter.MaxContentLength,
		textArray(filter.ExcludeMarkers),
		textArray(filter.RequireMarkers),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var embedding nullVector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&chunk.ContentLength,
			&embedding,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&chunk.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()

		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SearchByKeywords retrieves chunks containing any of the keywords as a
// case-insensitive substring. No ranking guarantee, shortest content first.
func (h *ChunksDBHandler) SearchByKeywords(keywords []string, filter model.ChunkFilter, limit int) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_keywords($1, $2, $3, $4, $5, $6)`,
		textArray(keywords),
		string(filter.Status),
		filter.MinContentLength,
		filter.MaxContentLength,
		textArray(filter.ExcludeMarkers),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return collectChunks(rows)
}

func scanChunk(row rowScanner, chunk *model.Chunk) error {
	var embedding nullVector
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
		&chunk.ChunkIndex,
		&chunk.Content,
		&chunk.ContentLength,
		&embedding,
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return err
	}

	chunk.Embedding = embedding.Slice()
	return nil
}

func collectChunks(rows interface {
	rowScanner
	Next() bool
	Err() error
}) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		err := scanChunk(rows, chunk)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		chunks = append(chunks, chunk)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// nullVector scans a nullable pgvector column.
type nullVector struct {
	vec   pgvector.Vector
	valid bool
}

func (n *nullVector) Scan(src any) error {
	if src == nil {
		n.valid = false
		return nil
	}
	n.valid = true
	return n.vec.Scan(src)
}

// Slice returns the vector values or nil for a NULL column.
func (n *nullVector) Slice() []float32 {
	if !n.valid {
		return nil
	}
	return n.vec.Slice()
}

// vectorParam converts an embedding to a query parameter, NULL when empty.
func vectorParam(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

// textArray converts a string slice to a query parameter, NULL when empty.
func textArray(vals []string) any {
	if len(vals) == 0 {
		return nil
	}
	return pq.Array(vals)
}
