package retrieval

import (
	"log/slog"
	"regexp"
	"strings"
)

const (
	// maxAnalysisKeywords caps the keyword set returned for a document.
	maxAnalysisKeywords = 15
	// maxPatternMatches caps the literal matches kept per specialized pattern.
	maxPatternMatches = 3
)

// specializedPatterns recognizes domain topics in document text. Each match
// contributes the topic label and up to three of the matched phrases.
var specializedPatterns = []struct {
	topic    string
	patterns []*regexp.Regexp
}{
	{
		topic: "техника_безопасности",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`техник[аи] безопасности`),
			regexp.MustCompile(`охран[аеы] труда`),
			regexp.MustCompile(`производственн[ыйая] безопасность`),
			regexp.MustCompile(`несчастн[ыйое] случа[йи]`),
			regexp.MustCompile(`трав[мы]`),
			regexp.MustCompile(`средства защиты`),
			regexp.MustCompile(`спецодежд[аы]`),
			regexp.MustCompile(`инструктаж`),
			regexp.MustCompile(`медосмотр`),
			regexp.MustCompile(`пожарн[аяое] безопасность`),
		},
	},
	{
		topic: "it_безопасность",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`информационн[аяое] безопасность`),
			regexp.MustCompile(`кибербезопасность`),
			regexp.MustCompile(`антивирус`),
			regexp.MustCompile(`парол[ьи]`),
			regexp.MustCompile(`авторизаци[яи]`),
			regexp.MustCompile(`доступ к системе`),
			regexp.MustCompile(`защита данных`),
			regexp.MustCompile(`резервн[ыое] копировани[ея]`),
			regexp.MustCompile(`шифровани[ея]`),
		},
	},
	{
		topic: "экология",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`экологическ[аяое]`),
			regexp.MustCompile(`окружающ[аяее] сред[аы]`),
			regexp.MustCompile(`утилизаци[яи]`),
			regexp.MustCompile(`отход[ыов]`),
			regexp.MustCompile(`переработк[аи]`),
			regexp.MustCompile(`загрязнени[ея]`),
			regexp.MustCompile(`природоохранн[ыйая]`),
		},
	},
	{
		topic: "качество",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`контроль качества`),
			regexp.MustCompile(`стандарт[ыов]`),
			regexp.MustCompile(`сертификаци[яи]`),
			regexp.MustCompile(`iso \d+`),
			regexp.MustCompile(`гост`),
			regexp.MustCompile(`техническ[иео] требовани[яй]`),
		},
	},
}

// AnalyzeDocumentKeywords extracts the key terms and topics of an ingested
// document from the full text of its chunks: the most frequent meaningful
// words plus any recognized specialized topics.
func (e *Engine) AnalyzeDocumentKeywords(documentID int64) ([]string, error) {
	chunks, err := e.store.SelectChunksByDocument(documentID)
	if err != nil {
		return nil, err
	}

	var parts []string
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	fullText := strings.Join(parts, " ")
	if strings.TrimSpace(fullText) == "" {
		return nil, nil
	}

	seen := map[string]bool{}
	var keywords []string
	for _, keyword := range ExtractDynamicKeywords(fullText) {
		if !seen[keyword] {
			seen[keyword] = true
			keywords = append(keywords, keyword)
		}
	}
	for _, term := range findSpecializedTerms(fullText) {
		if !seen[term] {
			seen[term] = true
			keywords = append(keywords, term)
		}
	}

	if len(keywords) > maxAnalysisKeywords {
		keywords = keywords[:maxAnalysisKeywords]
	}

	e.log.Info("document keywords analyzed",
		slog.Int64("documentID", documentID),
		slog.Any("keywords", keywords))
	return keywords, nil
}

// findSpecializedTerms returns the topic labels whose patterns match the text
// along with the matched phrases themselves, in table order.
func findSpecializedTerms(text string) []string {
	textLower := strings.ToLower(text)

	seen := map[string]bool{}
	var terms []string
	add := func(term string) {
		if term != "" && !seen[term] {
			seen[term] = true
			terms = append(terms, term)
		}
	}

	for _, group := range specializedPatterns {
		for _, pattern := range group.patterns {
			matches := pattern.FindAllString(textLower, maxPatternMatches)
			if len(matches) == 0 {
				continue
			}
			add(group.topic)
			for _, match := range matches {
				add(match)
			}
		}
	}

	return terms
}
