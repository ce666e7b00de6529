package answer

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/vmaslov/docqa/core/retrieval"
	"github.com/vmaslov/docqa/model"
)

const (
	// noResultsAnswer is returned when no relevant chunks exist. This is a
	// valid outcome, not a failure.
	noResultsAnswer = "К сожалению, я не нашел информации по вашему вопросу в базе знаний. Попробуйте переформулировать вопрос."
	// composerFailedAnswer is returned when the composer call fails.
	composerFailedAnswer = "Извините, произошла ошибка при генерации ответа. Попробуйте позже."
)

// Answerer glues retrieval and answer composition together: it searches for
// relevant chunks, shapes the prompt, calls the composer and post-processes
// the reply with a deduplicated source list.
type Answerer struct {
	engine    *retrieval.Engine
	documents DocumentResolver
	composer  Composer
	log       *slog.Logger
}

// NewAnswerer creates a new answerer.
func NewAnswerer(engine *retrieval.Engine, documents DocumentResolver, composer Composer, logger *slog.Logger) *Answerer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Answerer{
		engine:    engine,
		documents: documents,
		composer:  composer,
		log:       logger,
	}
}

// Answer answers a question from the document base. It always returns a
// result: composer failures surface as Success=false with a fallback answer
// text, an empty result set as Success=true with a "not found" message.
func (a *Answerer) Answer(ctx context.Context, question string, config *model.SearchConfig) *model.AnswerResult {
	if config == nil {
		config = model.DefaultSearchConfig()
	}

	a.log.Info("answering question", slog.String("question", question))

	results := a.engine.Search(ctx, question, config)
	if len(results) == 0 {
		return &model.AnswerResult{
			Answer:  noResultsAnswer,
			Sources: []model.Source{},
			Files:   []model.AttachedFile{},
			Success: true,
		}
	}

	topChunks := results
	if len(topChunks) > config.TopChunks {
		topChunks = topChunks[:config.TopChunks]
	}

	blocks, sources, files := a.resolveSources(topChunks, config.MaxFiles)
	contextText := FormatContext(blocks)
	prompt := BuildPrompt(question, contextText)

	response, err := a.composer.Generate(ctx, prompt)
	if err != nil || !response.Success {
		errText := ""
		if err != nil {
			errText = err.Error()
		} else {
			errText = response.Error
		}
		a.log.Error("answer composition failed", slog.String("error", errText))
		return &model.AnswerResult{
			Answer:  composerFailedAnswer,
			Sources: []model.Source{},
			Files:   []model.AttachedFile{},
			Success: false,
			Error:   errText,
		}
	}

	return &model.AnswerResult{
		Answer:        PostProcess(response.Text),
		Sources:       sources,
		Chunks:        results,
		Files:         files,
		Success:       true,
		TokensUsed:    response.TokensUsed,
		ChunksFound:   len(results),
		ContextLength: utf8.RuneCountInString(contextText),
	}
}

// resolveSources resolves the top chunks to their documents, building the
// context blocks and the source and file lists deduplicated by document
// title. Files are capped at maxFiles.
func (a *Answerer) resolveSources(chunks []*model.SearchResult, maxFiles int) ([]ContextBlock, []model.Source, []model.AttachedFile) {
	blocks := make([]ContextBlock, 0, len(chunks))
	sources := []model.Source{}
	files := []model.AttachedFile{}
	seenTitles := map[string]bool{}

	for _, chunk := range chunks {
		title := "Неизвестный документ"
		doc, err := a.documents.SelectDocument(chunk.DocumentID)
		if err != nil {
			a.log.Warn("failed to resolve source document",
				slog.Int64("document_id", chunk.DocumentID),
				slog.String("error", err.Error()))
			doc = nil
		}
		if doc != nil {
			title = doc.Title
		}

		blocks = append(blocks, ContextBlock{Title: title, Content: chunk.Content})

		if doc == nil || seenTitles[title] {
			continue
		}
		seenTitles[title] = true

		sources = append(sources, model.Source{
			Title:      title,
			DocumentID: doc.ID,
			ChunkIndex: chunk.ChunkIndex,
		})
		if len(files) < maxFiles {
			files = append(files, model.AttachedFile{
				Title:      title,
				Source:     doc.Source,
				DocumentID: doc.ID,
				Similarity: chunk.Similarity,
			})
		}
	}

	return blocks, sources, files
}
