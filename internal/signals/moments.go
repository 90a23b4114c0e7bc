package signals

import (
	"sort"
	"strings"
	"unicode"

	"github.com/lazypower/tidemark/internal/model"
)

// Moment categories.
const (
	BodyDiscomfort  = "body_discomfort"
	WorkOverload    = "work_overload"
	PositiveEmotion = "positive_emotion"
	NegativeEmotion = "negative_emotion"
)

const (
	maxHintWords    = 12
	minMomentWords  = 8
	maxMomentWords  = 20
	minHintWordSize = 3
)

// category is a fixed keyword set with the template used to paraphrase a
// match.
type category struct {
	name     string
	template string
	keywords map[string]bool
}

var categories = []category{
	{
		name:     BodyDiscomfort,
		template: "some physical strain showed up this week around",
		keywords: wordSet("headache", "migraine", "pain", "sore", "ache", "aching", "exhausted", "sick", "nausea", "insomnia", "injured", "cramps"),
	},
	{
		name:     WorkOverload,
		template: "work felt heavy this week with mentions of",
		keywords: wordSet("deadline", "deadlines", "overwhelmed", "swamped", "backlog", "overtime", "crunch", "overloaded", "behind", "burnout"),
	},
	{
		name:     PositiveEmotion,
		template: "a brighter stretch this week touching on",
		keywords: wordSet("happy", "grateful", "excited", "calm", "proud", "joy", "relieved", "content", "hopeful", "energized"),
	},
	{
		name:     NegativeEmotion,
		template: "a harder emotional stretch this week involving",
		keywords: wordSet("anxious", "sad", "angry", "frustrated", "stressed", "lonely", "upset", "worried", "irritable", "down"),
	},
}

// filler pads a hint that would otherwise be shorter than minMomentWords.
var filler = []string{"and", "the", "surrounding", "everyday", "context"}

var stopWords = wordSet(
	"the", "and", "but", "for", "with", "was", "were", "are", "this", "that",
	"have", "had", "has", "been", "from", "into", "about", "just", "very",
	"really", "then", "than", "there", "their", "they", "them", "what", "when",
	"which", "while", "again", "also", "some", "more", "most", "much", "today",
	"yesterday", "tomorrow", "morning", "evening", "night", "tonight", "felt",
	"feel", "feeling", "got", "get", "getting", "did", "does", "not", "too",
	"our", "out", "you", "your", "its", "it's", "i'm", "me", "my", "myself",
)

func wordSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Moment is a short, timestamp-free paraphrase of a notable entry.
type Moment struct {
	Category string `json:"category"`
	Hint     string `json:"hint"`
}

// ScanMoments flags at most one moment per category, taking the earliest
// matching memory. Output is ordered by category.
func ScanMoments(memories []model.Memory) []Moment {
	sorted := append([]model.Memory(nil), memories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].OccurredAt.Equal(sorted[j].OccurredAt) {
			return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
		}
		return sorted[i].ID < sorted[j].ID
	})

	tokenized := make([][]string, len(sorted))
	for i, m := range sorted {
		tokenized[i] = sanitize(m.Content)
	}

	moments := []Moment{}
	for _, cat := range categories {
		for _, words := range tokenized {
			trigger := firstMatch(words, cat.keywords)
			if trigger == "" {
				continue
			}
			moments = append(moments, Moment{Category: cat.name, Hint: buildHint(cat.template, trigger, words)})
			break
		}
	}
	return moments
}

// sanitize lowercases text and keeps alphabetic words. Tokens containing
// digits are dropped so no clock times or dates survive.
func sanitize(text string) []string {
	var out []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if strings.IndexFunc(field, unicode.IsDigit) >= 0 {
			continue
		}
		word := strings.TrimFunc(field, func(r rune) bool { return !unicode.IsLetter(r) })
		if strings.IndexFunc(word, func(r rune) bool { return !unicode.IsLetter(r) && r != '\'' && r != '-' }) >= 0 {
			continue
		}
		if word != "" {
			out = append(out, word)
		}
	}
	return out
}

func firstMatch(words []string, keywords map[string]bool) string {
	for _, w := range words {
		if keywords[w] {
			return w
		}
	}
	return ""
}

// buildHint joins the template with the trigger and up to maxHintWords
// distinct content words, trigger first.
func buildHint(template, trigger string, words []string) string {
	picked := []string{trigger}
	seen := map[string]bool{trigger: true}
	for _, w := range words {
		if len(picked) >= maxHintWords {
			break
		}
		if seen[w] || stopWords[w] || len([]rune(w)) < minHintWordSize {
			continue
		}
		seen[w] = true
		picked = append(picked, w)
	}

	out := append(strings.Fields(template), picked...)
	for i := 0; len(out) < minMomentWords && i < len(filler); i++ {
		out = append(out, filler[i])
	}
	if len(out) > maxMomentWords {
		out = out[:maxMomentWords]
	}
	return strings.Join(out, " ")
}
