package retrieval

import (
	"strings"
	"unicode/utf8"
)

// boilerplateMarkers are fixed phrases that identify administrative
// front-matter (approval headers, title pages) rather than substantive
// content. Content containing more than two of them is rejected outright.
var boilerplateMarkers = []string{
	"приложение",
	"утверждаю",
	"генеральный директор",
	"система менеджмента",
	"введено впервые",
	"дата введения",
	"область применения",
	"настоящее положение направлено",
	"акционерное общество",
}

// storageExcludeMarkers is the subset of markers applied as ILIKE exclusions
// at the store level before ranking.
var storageExcludeMarkers = []string{
	"приложение",
	"утверждаю",
	"генеральный директор",
	"система менеджмента",
	"введено впервые",
	"дата введения",
}

// keyTermGroups lets a question and a chunk match through a shared topic even
// without literal word overlap. Permissive on purpose: recall first, ranking
// corrects precision later.
var keyTermGroups = [][]string{
	{"отпуск", "отпускные", "отдых", "отпуска", "отпусков", "отпускной"},
	{"зарплата", "заработная плата", "оплата труда", "выплачивается", "выплата"},
	{"выплаты", "выплата", "начисления", "премия"},
	{"юбилей", "юбилейные", "годовщина"},
	{"больничный", "нетрудоспособность"},
	{"командировка", "служебная поездка"},
	{"увольнение", "расторжение договора"},
	{"оформление", "оформить", "оформления", "процедура", "порядок"},
}

// isRelevantContent decides whether chunk content plausibly answers the
// question. Content with more than two boilerplate markers is rejected
// regardless of overlap; otherwise one shared word of more than two runes, or
// a key-term group matched by both sides, is enough.
func isRelevantContent(content, question string) bool {
	contentLower := strings.ToLower(content)
	questionLower := strings.ToLower(question)

	markerCount := 0
	for _, marker := range boilerplateMarkers {
		if strings.Contains(contentLower, marker) {
			markerCount++
		}
	}
	if markerCount > 2 {
		return false
	}

	if sharedWordCount(questionLower, contentLower) >= 1 {
		return true
	}

	for _, group := range keyTermGroups {
		questionHasTerm := false
		contentHasTerm := false
		for _, term := range group {
			if !questionHasTerm && strings.Contains(questionLower, term) {
				questionHasTerm = true
			}
			if !contentHasTerm && strings.Contains(contentLower, term) {
				contentHasTerm = true
			}
		}
		if questionHasTerm && contentHasTerm {
			return true
		}
	}

	return false
}

// sharedWordCount counts distinct words of more than two runes that appear in
// both texts. Inputs are expected to be lower-cased already.
func sharedWordCount(a, b string) int {
	wordsA := map[string]bool{}
	for _, word := range strings.Fields(a) {
		if utf8.RuneCountInString(word) > 2 {
			wordsA[word] = true
		}
	}

	seen := map[string]bool{}
	count := 0
	for _, word := range strings.Fields(b) {
		if wordsA[word] && !seen[word] {
			seen[word] = true
			count++
		}
	}
	return count
}

// wordOverlap counts distinct words appearing in both texts with no length
// filter. Used for the heuristic similarity of the text search stage.
func wordOverlap(a, b string) int {
	wordsA := map[string]bool{}
	for _, word := range strings.Fields(a) {
		wordsA[word] = true
	}

	seen := map[string]bool{}
	count := 0
	for _, word := range strings.Fields(b) {
		if wordsA[word] && !seen[word] {
			seen[word] = true
			count++
		}
	}
	return count
}
