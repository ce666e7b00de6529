package retrieval

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// maxKeywords caps the keyword set handed to the text search stage.
	maxKeywords = 15
	// maxDynamicKeywords caps the frequency-ranked set of the last-resort stage.
	maxDynamicKeywords = 10
)

// synonyms maps a canonical term to its surface forms. A question containing
// any surface form contributes both the canonical term and the matched form
// to the keyword set. Some forms appear in several groups and contribute
// every matching canonical term. The vocabulary covers the corporate document
// domains the system is used for: payroll, safety, IT, benefits and logistics.
var synonyms = map[string][]string{
	// HR and payroll
	"аванс":      {"аванс", "авансовая", "авансовый", "первая часть", "первая половина", "предоплата"},
	"зарплата":   {"зарплата", "заработная плата", "оплата труда", "вознаграждение", "зп", "доход"},
	"выплата":    {"выплата", "выплачивается", "перечисление", "начисление", "выдача", "платеж"},
	"дата":       {"дата", "число", "срок", "время", "когда", "день", "период"},
	"размер":     {"размер", "сумма", "процент", "сколько", "величина", "объем"},
	"отпуск":     {"отпуск", "отпускные", "отдых", "каникулы", "vacation"},
	"больничный": {"больничный", "болезнь", "нетрудоспособность", "лист нетрудоспособности"},
	"премия":     {"премия", "бонус", "поощрение", "надбавка", "стимулирование"},
	"договор":    {"договор", "контракт", "соглашение", "трудовой договор"},
	"увольнение": {"увольнение", "расторжение", "прекращение", "уход", "dismissal"},
	"график":     {"график", "расписание", "режим", "время работы", "смена"},
	"документы":  {"документы", "справки", "бумаги", "формы", "заявления"},

	// Occupational safety
	"безопасность":          {"безопасность", "охрана труда", "техбезопасность", "охрана", "защита"},
	"инструкция":            {"инструкция", "правила", "порядок", "процедура", "регламент"},
	"средства_защиты":       {"сиз", "средства защиты", "спецодежда", "каска", "перчатки", "очки"},
	"несчастный_случай":     {"несчастный случай", "травма", "происшествие", "авария", "инцидент"},
	"обучение_бт":           {"обучение", "инструктаж", "подготовка", "курсы безопасности"},
	"медосмотр":             {"медосмотр", "медицинский осмотр", "диспансеризация", "здоровье"},
	"пожарная_безопасность": {"пожар", "огнетушитель", "эвакуация", "пожарная безопасность"},

	// IT and information security
	"компьютер": {"компьютер", "пк", "ноутбук", "рабочее место", "техника"},
	"пароль":    {"пароль", "авторизация", "доступ", "логин", "учетная запись"},
	"интернет":  {"интернет", "сеть", "wifi", "подключение", "онлайн"},
	"почта":     {"почта", "email", "емейл", "электронная почта", "мейл"},
	"программы": {"программы", "софт", "приложения", "software", "система"},
	"данные":    {"данные", "информация", "файлы", "документооборот", "архив"},
	"вирус":     {"вирус", "антивирус", "malware", "защита", "угроза"},

	// Common workplace processes
	"командировка": {"командировка", "поездка", "путешествие", "business trip"},
	"обед":         {"обед", "перерыв", "питание", "столовая", "кафе"},
	"транспорт":    {"транспорт", "проезд", "автобус", "машина", "такси"},
	"парковка":     {"парковка", "стоянка", "автомобиль", "место для машины"},
	"пропуск":      {"пропуск", "доступ", "проход", "карта", "badge"},
	"дресс_код":    {"дресс код", "одежда", "внешний вид", "форма", "uniform"},

	// Benefits
	"льготы":      {"льготы", "компенсации", "возмещение", "benefits", "пособия"},
	"страхование": {"страхование", "дмс", "полис", "медстраховка"},
	"спорт":       {"спорт", "фитнес", "тренажерный зал", "здоровье", "физкультура"},
	"обучение":    {"обучение", "курсы", "тренинги", "развитие", "образование"},

	// Facilities
	"офис":         {"офис", "помещение", "рабочее место", "кабинет", "space"},
	"оборудование": {"оборудование", "инвентарь", "техника", "устройства"},
	"уборка":       {"уборка", "чистота", "клининг", "санитария", "гигиена"},
	"ремонт":       {"ремонт", "поломка", "неисправность", "сервис", "maintenance"},
}

// russianStopWords filters interrogatives and auxiliaries out of extracted
// Cyrillic keywords.
var russianStopWords = map[string]bool{
	"когда": true, "какой": true, "какая": true, "какие": true, "сколько": true,
	"почему": true, "зачем": true, "откуда": true, "куда": true, "который": true,
	"которая": true, "которые": true, "можно": true, "нужно": true, "должен": true,
	"должна": true, "будет": true, "были": true, "есть": true, "было": true, "буду": true,
}

// englishStopWords is a small English stop-word set for the Latin keyword pass.
var englishStopWords = map[string]bool{
	"and": true, "the": true, "for": true, "are": true, "you": true,
	"can": true, "how": true, "what": true,
}

// dynamicStopWords is the broader stop-word set used by the frequency-ranked
// extraction of the last-resort search stage.
var dynamicStopWords = map[string]bool{
	// Russian
	"как": true, "что": true, "где": true, "когда": true, "почему": true,
	"зачем": true, "кто": true, "чей": true, "какой": true, "какая": true,
	"какие": true, "это": true, "тот": true, "тем": true, "том": true,
	"они": true, "оно": true, "она": true, "его": true, "для": true,
	"при": true, "под": true, "над": true, "без": true, "через": true,
	"между": true, "перед": true, "после": true, "вместо": true, "кроме": true,
	"будет": true, "была": true, "были": true, "буду": true, "есть": true,
	"был": true, "может": true, "можно": true, "нужно": true, "должен": true,
	"должна": true, "должны": true, "очень": true, "всех": true, "всем": true,
	"всей": true, "или": true, "также": true, "если": true, "чтобы": true,
	// English
	"the": true, "and": true, "for": true, "are": true, "you": true,
	"can": true, "how": true, "what": true, "where": true, "when": true,
	"why": true, "who": true, "this": true, "that": true, "they": true,
	"them": true, "with": true, "from": true, "have": true, "will": true,
	"been": true, "were": true, "was": true,
}

var (
	digitRunPattern    = regexp.MustCompile(`[0-9]+`)
	cyrillicRunPattern = regexp.MustCompile(`[а-яё]+`)
	latinRunPattern    = regexp.MustCompile(`[a-z]+`)
	capsRunPattern     = regexp.MustCompile(`[А-ЯЁA-Z]+`)
)

// ExtractKeywords extracts up to 15 search keywords from a question: synonym
// table hits (canonical term plus matched form), 1-2 digit numerals, Cyrillic
// words of at least 4 runes, Latin words of at least 3 letters and upper-case
// abbreviations of 2-6 letters, all stop-word filtered.
func ExtractKeywords(question string) []string {
	questionLower := strings.ToLower(question)
	seen := map[string]bool{}
	var keywords []string

	add := func(word string) {
		if word != "" && !seen[word] {
			seen[word] = true
			keywords = append(keywords, word)
		}
	}

	// Synonym table hits, in stable order.
	bases := make([]string, 0, len(synonyms))
	for base := range synonyms {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	for _, base := range bases {
		for _, form := range synonyms[base] {
			if strings.Contains(questionLower, form) {
				add(base)
				add(form)
				break
			}
		}
	}

	// Numerals: dates, percentages, day-of-month references.
	for _, num := range digitRunPattern.FindAllString(question, -1) {
		if len(num) <= 2 {
			add(num)
		}
	}

	// Cyrillic words.
	for _, word := range cyrillicRunPattern.FindAllString(questionLower, -1) {
		if utf8.RuneCountInString(word) >= 4 && !russianStopWords[word] {
			add(word)
		}
	}

	// Latin words, mostly IT vocabulary.
	for _, word := range latinRunPattern.FindAllString(questionLower, -1) {
		if len(word) >= 3 && !englishStopWords[word] {
			add(word)
		}
	}

	// Abbreviations like СИЗ, ДМС, VPN.
	for _, abbr := range capsRunPattern.FindAllString(question, -1) {
		if n := utf8.RuneCountInString(abbr); n >= 2 && n <= 6 {
			add(strings.ToLower(abbr))
		}
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}

// ExtractDynamicKeywords extracts the 10 most frequent meaningful words from
// the text with no length band or category restriction beyond stop-word
// filtering. Used by the last-resort search stage.
func ExtractDynamicKeywords(text string) []string {
	textLower := strings.ToLower(text)

	var words []string
	words = append(words, cyrillicRunPattern.FindAllString(textLower, -1)...)
	words = append(words, latinRunPattern.FindAllString(textLower, -1)...)
	for _, abbr := range capsRunPattern.FindAllString(text, -1) {
		words = append(words, strings.ToLower(abbr))
	}

	counts := map[string]int{}
	var order []string
	for _, word := range words {
		if utf8.RuneCountInString(word) <= 2 || dynamicStopWords[word] {
			continue
		}
		if counts[word] == 0 {
			order = append(order, word)
		}
		counts[word]++
	}

	// Frequency-ranked, first occurrence breaking ties.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxDynamicKeywords {
		order = order[:maxDynamicKeywords]
	}
	return order
}
