package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ContextBlock is one source-labeled passage handed to the composer.
type ContextBlock struct {
	Title   string
	Content string
}

// FormatContext renders the context blocks with ordinal source labels, the
// shape the prompt instructions refer back to.
func FormatContext(blocks []ContextBlock) string {
	if len(blocks) == 0 {
		return "Информация не найдена."
	}

	parts := make([]string, 0, len(blocks))
	for i, block := range blocks {
		parts = append(parts, fmt.Sprintf("[Источник %d: %s]\n%s\n", i+1, block.Title, block.Content))
	}
	return strings.Join(parts, "\n")
}

// BuildPrompt embeds the question and the source-labeled context together
// with the answering instructions for the composer.
func BuildPrompt(question string, contextText string) string {
	return fmt.Sprintf(`Вопрос: %s

Контекст: %s

Требования к ответу:
1. Будь максимально точным и подробным
2. Используй только информацию из предоставленного контекста
3. Структурируй ответ с нумерованными списками где это уместно
4. Если в контексте есть конкретные цифры, даты, суммы - обязательно укажи их
5. Отвечай на том же языке, на котором задан вопрос
`, question, contextText)
}

// PostProcess cleans a composed answer: trims, collapses blank-line runs,
// drops duplicate sentences case-insensitively and restores terminal
// punctuation on all but the last sentence.
func PostProcess(text string) string {
	text = strings.TrimSpace(text)

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	text = strings.Join(cleaned, "\n")

	sentences := strings.Split(text, ". ")
	var unique []string
	seen := map[string]bool{}
	for _, sentence := range sentences {
		trimmed := strings.TrimSpace(sentence)
		key := strings.ToLower(trimmed)
		if key == "" || seen[key] || utf8.RuneCountInString(key) <= 10 {
			continue
		}
		seen[key] = true
		unique = append(unique, trimmed)
	}

	for i, sentence := range unique {
		if i == len(unique)-1 {
			break
		}
		if !strings.HasSuffix(sentence, ".") && !strings.HasSuffix(sentence, ":") && !strings.HasSuffix(sentence, ";") {
			unique[i] = sentence + "."
		}
	}

	return strings.Join(unique, " ")
}
