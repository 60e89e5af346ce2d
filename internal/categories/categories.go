// Package categories scores how close a product category is to the
// categories a user blacklisted.
package categories

import (
	"math"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity scores used for exact structural matches.
const (
	scoreIdentical   = 100
	scoreContainment = 85
	scoreSynonym     = 75
	scoreSharedWords = 60
)

// synonymGroups lists category names that mean the same thing.
var synonymGroups = [][]string{
	{"техника", "электроника", "гаджеты", "устройства", "приборы"},
	{"игры", "видеоигры", "геймы", "консоли", "игровые"},
	{"одежда", "шмотки", "вещи", "гардероб", "fashion"},
	{"еда", "продукты", "питание", "фастфуд", "food"},
	{"транспорт", "машина", "авто", "автомобиль", "мото"},
	{"развлечения", "досуг", "отдых", "хобби", "fun"},
	{"electronics", "tech", "gadgets", "devices", "appliances"},
	{"games", "video games", "gaming", "consoles"},
	{"clothes", "clothing", "apparel", "wardrobe"},
	{"transport", "car", "auto", "vehicle", "moto"},
	{"entertainment", "leisure", "hobby", "hobbies"},
}

// Match is the similarity of a product category to one blacklisted category.
type Match struct {
	BlacklistedCategory string `json:"blacklisted_category"`
	SimilarityScore     int    `json:"similarity_score"`
	Reason              string `json:"reason"`
}

// Result lists blacklist matches for a product category, best first.
type Result struct {
	ProductCategory string  `json:"productCategory"`
	Matches         []Match `json:"matches"`
	HighestMatch    *Match  `json:"highestMatch"`
}

// Similarity returns a 0-100 score of how alike two category names are.
// Comparison is case-insensitive; blank names never match.
func Similarity(a, b string) int {
	a = normalize(a)
	b = normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return scoreIdentical
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return scoreContainment
	}
	for _, group := range synonymGroups {
		if slices.Contains(group, a) && slices.Contains(group, b) {
			return scoreSynonym
		}
	}

	wordsA := strings.Fields(a)
	wordsB := strings.Fields(b)
	common := 0
	for _, w := range wordsA {
		if slices.Contains(wordsB, w) {
			common++
		}
	}
	if common > 0 {
		ratio := float64(common) / float64(max(len(wordsA), len(wordsB)))
		return int(math.Round(ratio * scoreSharedWords))
	}

	distance := levenshtein.ComputeDistance(a, b)
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	return int(math.Round(float64(longest-distance) / float64(longest) * 100))
}

// Reason describes a similarity score in words.
func Reason(score int) string {
	switch {
	case score >= 80:
		return "Categories are practically identical"
	case score >= 60:
		return "Categories are very similar"
	case score >= 40:
		return "Categories partially overlap"
	case score >= 20:
		return "Categories may be related"
	default:
		return "Categories are unrelated"
	}
}

// MatchAll scores product against every blacklisted category. Zero scores
// are dropped and the rest sorted by descending score.
func MatchAll(product string, blacklist []string) Result {
	res := Result{ProductCategory: product, Matches: []Match{}}
	for _, b := range blacklist {
		score := Similarity(product, b)
		if score <= 0 {
			continue
		}
		res.Matches = append(res.Matches, Match{
			BlacklistedCategory: b,
			SimilarityScore:     score,
			Reason:              Reason(score),
		})
	}
	sort.SliceStable(res.Matches, func(i, j int) bool {
		return res.Matches[i].SimilarityScore > res.Matches[j].SimilarityScore
	})
	if len(res.Matches) > 0 {
		best := res.Matches[0]
		res.HighestMatch = &best
	}
	return res
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
