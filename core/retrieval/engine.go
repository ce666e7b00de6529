package retrieval

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/vmaslov/docqa/core/pipeline"
	"github.com/vmaslov/docqa/model"
)

const (
	// vectorOverfetch multiplies the result limit for the vector stage so
	// that relevance filtering still leaves enough candidates.
	vectorOverfetch = 2
	// maxTextKeywords caps the keywords used in a single containment query.
	maxTextKeywords = 5
	// textSimilarityBase is the starting heuristic similarity of text hits.
	textSimilarityBase = 0.3
	// textSimilarityCap clamps the heuristic similarity of text hits.
	textSimilarityCap = 0.95
	// fallbackSimilarity is the flat similarity of last-resort hits.
	fallbackSimilarity = 0.6
)

// Engine produces a ranked, deduplicated list of chunks for a question by
// layering retrieval strategies: boost rules, vector similarity, keyword
// containment and a last-resort broad search. It is read-only and safe for
// concurrent use as long as store and embed are.
type Engine struct {
	store  ChunkStore
	embed  pipeline.EmbedFunc
	boosts []BoostRule
	log    *slog.Logger
}

// NewEngine creates a new retrieval engine with the default boost rules.
func NewEngine(store ChunkStore, embed pipeline.EmbedFunc, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		store:  store,
		embed:  embed,
		boosts: DefaultBoostRules(),
		log:    logger,
	}
}

// SetBoostRules replaces the boost rule table.
func (e *Engine) SetBoostRules(rules []BoostRule) {
	e.boosts = rules
}

// Search runs all retrieval stages for the question and merges their results,
// best similarity first, deduplicated by chunk ID with earlier stages
// winning. Store and embedding failures degrade the affected stage to empty
// and are logged; Search itself never fails. An empty result list means no
// relevant information exists, not an error.
func (e *Engine) Search(ctx context.Context, question string, config *model.SearchConfig) []*model.SearchResult {
	if config == nil {
		config = model.DefaultSearchConfig()
	}

	embedding, err := e.embed(question)
	if err != nil {
		e.log.Error("question embedding failed",
			slog.String("question", questionPrefix(question)),
			slog.String("error", err.Error()))
		embedding = nil
	}

	all := []*model.SearchResult{}
	seen := map[int64]bool{}
	merge := func(results []*model.SearchResult) {
		for _, result := range results {
			if !seen[result.ChunkID] {
				seen[result.ChunkID] = true
				all = append(all, result)
			}
		}
	}

	if embedding != nil && ctx.Err() == nil {
		merge(e.boostStage(question, embedding))

		vector, err := e.vectorStage(question, embedding, config)
		if err != nil {
			e.log.Error("vector stage failed",
				slog.String("question", questionPrefix(question)),
				slog.String("error", err.Error()))
		} else {
			merge(vector)
		}
	}

	if len(all) < config.Limit && ctx.Err() == nil {
		text, err := e.textStage(question, config.Limit)
		if err != nil {
			e.log.Error("text stage failed",
				slog.String("question", questionPrefix(question)),
				slog.String("error", err.Error()))
		} else {
			merge(text)
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Similarity > all[j].Similarity
	})
	if len(all) > config.Limit {
		all = all[:config.Limit]
	}

	if len(all) == 0 && ctx.Err() == nil {
		fallback, err := e.fallbackStage(question, config.Limit)
		if err != nil {
			e.log.Error("fallback stage failed",
				slog.String("question", questionPrefix(question)),
				slog.String("error", err.Error()))
			return []*model.SearchResult{}
		}
		return fallback
	}

	return all
}

// boostStage runs every triggered boost rule: a narrowed similarity query
// restricted to chunks containing all of the rule's markers. Hits above the
// rule threshold get the rule bonus and strategy tag. Rule failures degrade
// that rule only.
func (e *Engine) boostStage(question string, embedding []float32) []*model.SearchResult {
	var results []*model.SearchResult

	for _, rule := range e.boosts {
		if !rule.Triggered(question) {
			continue
		}

		filter := model.ChunkFilter{
			Status:           model.StatusCompleted,
			RequireMarkers:   rule.RequiredMarkers,
			RequireEmbedding: true,
		}
		chunks, err := e.store.SearchBySimilarity(embedding, filter, rule.Limit)
		if err != nil {
			e.log.Error("boost rule failed",
				slog.String("rule", rule.Name),
				slog.String("error", err.Error()))
			continue
		}

		for _, chunk := range chunks {
			if chunk.Similarity > rule.Threshold {
				results = append(results, model.ResultFromChunk(chunk, chunk.Similarity+rule.Bonus, rule.Strategy()))
			}
		}

		if len(results) > 0 {
			e.log.Info("boost rule matched",
				slog.String("rule", rule.Name),
				slog.Int("hits", len(results)))
		}
	}

	return results
}

// vectorStage embeds the question and ranks chunks of completed documents by
// cosine similarity, over-fetching before the similarity threshold and
// relevance predicate are applied.
func (e *Engine) vectorStage(question string, embedding []float32, config *model.SearchConfig) ([]*model.SearchResult, error) {
	filter := model.CompletedFilter(100, 4000, storageExcludeMarkers)
	filter.RequireEmbedding = true

	chunks, err := e.store.SearchBySimilarity(embedding, filter, config.Limit*vectorOverfetch)
	if err != nil {
		return nil, err
	}

	var results []*model.SearchResult
	for _, chunk := range chunks {
		if chunk.Similarity > config.MinSimilarity && isRelevantContent(chunk.Content, question) {
			results = append(results, model.ResultFromChunk(chunk, chunk.Similarity, model.StrategyVector))
		}
	}

	e.log.Info("vector stage finished", slog.Int("hits", len(results)))
	return results, nil
}

// textStage supplements with keyword containment search when the vector
// stages fall short of the limit. Similarity is heuristic: a base score plus
// a bonus per matched keyword and a capped bonus for word overlap with the
// question. At least one shared word is required.
func (e *Engine) textStage(question string, limit int) ([]*model.SearchResult, error) {
	keywords := ExtractKeywords(question)
	if len(keywords) == 0 {
		return nil, nil
	}

	queryKeywords := keywords
	if len(queryKeywords) > maxTextKeywords {
		queryKeywords = queryKeywords[:maxTextKeywords]
	}

	chunks, err := e.store.SearchByKeywords(queryKeywords, model.CompletedFilter(200, 3000, storageExcludeMarkers), limit)
	if err != nil {
		return nil, err
	}

	questionLower := strings.ToLower(question)

	var results []*model.SearchResult
	for _, chunk := range chunks {
		if !isRelevantContent(chunk.Content, question) {
			continue
		}

		contentLower := strings.ToLower(chunk.Content)
		overlap := wordOverlap(questionLower, contentLower)
		if overlap < 1 {
			continue
		}

		similarity := textSimilarityBase
		for _, keyword := range keywords {
			if strings.Contains(contentLower, keyword) {
				similarity += 0.1
			}
		}
		wordBonus := float64(overlap) * 0.05
		if wordBonus > 0.3 {
			wordBonus = 0.3
		}
		similarity += wordBonus
		if similarity > textSimilarityCap {
			similarity = textSimilarityCap
		}

		results = append(results, model.ResultFromChunk(chunk, similarity, model.StrategyText))
	}

	e.log.Info("text stage finished",
		slog.Int("hits", len(results)),
		slog.Any("keywords", queryKeywords))
	return results, nil
}

// fallbackStage is the last resort when every other stage came back empty: a
// broad containment query over frequency-ranked keywords with no content
// filtering. All hits share one flat similarity; ordering prefers an exact
// first-keyword match, then shorter content.
func (e *Engine) fallbackStage(question string, limit int) ([]*model.SearchResult, error) {
	keywords := ExtractDynamicKeywords(question)
	if len(keywords) > maxTextKeywords {
		keywords = keywords[:maxTextKeywords]
	}

	if len(keywords) == 0 {
		for _, word := range strings.Fields(strings.ToLower(question)) {
			if len([]rune(word)) > 2 {
				keywords = append(keywords, word)
			}
			if len(keywords) == 3 {
				break
			}
		}
	}
	if len(keywords) == 0 {
		return nil, nil
	}

	chunks, err := e.store.SearchByKeywords(keywords, model.ChunkFilter{Status: model.StatusCompleted}, limit)
	if err != nil {
		return nil, err
	}

	firstKeyword := keywords[0]
	sort.SliceStable(chunks, func(i, j int) bool {
		iHasFirst := strings.Contains(strings.ToLower(chunks[i].Content), firstKeyword)
		jHasFirst := strings.Contains(strings.ToLower(chunks[j].Content), firstKeyword)
		if iHasFirst != jHasFirst {
			return iHasFirst
		}
		return chunks[i].ContentLength < chunks[j].ContentLength
	})

	var results []*model.SearchResult
	for _, chunk := range chunks {
		results = append(results, model.ResultFromChunk(chunk, fallbackSimilarity, model.StrategyFallback))
		if len(results) == limit {
			break
		}
	}

	e.log.Info("fallback stage finished",
		slog.Int("hits", len(results)),
		slog.Any("keywords", keywords))
	return results, nil
}

// questionPrefix shortens a question for log lines.
func questionPrefix(question string) string {
	runes := []rune(question)
	if len(runes) <= 100 {
		return question
	}
	return string(runes[:100]) + "..."
}
