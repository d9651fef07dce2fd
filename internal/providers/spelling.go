package providers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/proximodev/releasepass/internal/catalog"
	"github.com/proximodev/releasepass/internal/qa"
)

const (
	spellingProviderName = "spelling"

	CodeSpellingMisspelling = "SPELLING_MISSPELLING"
	CodeSpellingGrammar     = "SPELLING_GRAMMAR"
	CodeSpellingClean       = "SPELLING_CLEAN"
)

var spellingSeverities = map[string]qa.Severity{
	CodeSpellingMisspelling: qa.SeverityMedium,
	CodeSpellingGrammar:     qa.SeverityLow,
}

var spellingNames = map[string]string{
	CodeSpellingMisspelling: "Misspelled word",
	CodeSpellingGrammar:     "Grammar issue",
	CodeSpellingClean:       "No spelling or grammar issues",
}

// Match is one flagged token from the grammar service.
type Match struct {
	Word     string `json:"word"`
	Message  string `json:"message"`
	Context  string `json:"context"`
	Offset   int    `json:"offset"`
	RuleType string `json:"rule_type"`
}

type spellingResponse struct {
	Language string  `json:"language"`
	Matches  []Match `json:"matches"`
}

// IsLikelyProperNoun reports whether a flagged word looks like a proper noun
// the dictionary simply does not know: a capitalized word that is not
// sentence-initial, an all-caps acronym, or a possessive of either. Such
// matches are suppressed rather than reported as misspellings.
func IsLikelyProperNoun(m Match) bool {
	word := strings.TrimSpace(m.Word)
	word = strings.TrimSuffix(word, "'s")
	word = strings.TrimSuffix(word, "’s")
	if word == "" {
		return false
	}

	runes := []rune(word)
	if !unicode.IsUpper(runes[0]) {
		return false
	}

	// Acronyms like NASA or IPv6-style mixed tokens.
	rest := runes[1:]
	if len(rest) > 0 {
		allUpper := true
		for _, r := range rest {
			if unicode.IsLetter(r) && !unicode.IsUpper(r) {
				allUpper = false
				break
			}
		}
		if allUpper {
			return true
		}
	}

	// A capitalized word at the start of a sentence is ordinary casing, not
	// evidence of a name. The context preceding the offset decides.
	if sentenceInitial(m.Context, m.Offset) {
		return false
	}
	for _, r := range rest {
		if unicode.IsLetter(r) && unicode.IsUpper(r) {
			// Mixed case mid-word (McCarthy, iPhone-style brands).
			return true
		}
	}
	return true
}

func sentenceInitial(context string, offset int) bool {
	if offset <= 0 {
		return true
	}
	runes := []rune(context)
	if offset > len(runes) {
		return false
	}
	for i := offset - 1; i >= 0; i-- {
		r := runes[i]
		if unicode.IsSpace(r) || r == '"' || r == '\'' || r == '(' || r == '[' {
			continue
		}
		return r == '.' || r == '!' || r == '?' || r == ':'
	}
	return true
}

// Spelling checks a page's copy through the remote grammar service.
type Spelling struct {
	client   *apiClient
	endpoint string
	language string
	resolve  resolver
	logger   *zap.Logger
}

func NewSpelling(endpoint, apiKey, language string, timeout time.Duration, policy qa.RetryPolicy, cat *catalog.Catalog, logger *zap.Logger) *Spelling {
	if logger == nil {
		logger = zap.NewNop()
	}
	if language == "" {
		language = "en-US"
	}
	return &Spelling{
		client:   newAPIClient(timeout, policy, apiKey, logger),
		endpoint: endpoint,
		language: language,
		resolve: resolver{
			provider:   spellingProviderName,
			catalog:    cat,
			severities: spellingSeverities,
			names:      spellingNames,
		},
		logger: logger,
	}
}

func (s *Spelling) Name() string { return spellingProviderName }

func (s *Spelling) Check(ctx context.Context, target Target) ([]Report, error) {
	if s.endpoint == "" {
		return nil, &qa.ConfigError{Reason: "spelling provider endpoint not configured"}
	}

	var resp spellingResponse
	req := map[string]string{"url": target.URL, "language": s.language}
	if err := s.client.postJSON(ctx, s.endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("spellcheck %s: %w", target.URL, err)
	}

	suppressed := 0
	var items []qa.ResultItem
	for _, m := range resp.Matches {
		if IsLikelyProperNoun(m) {
			suppressed++
			continue
		}
		code := CodeSpellingMisspelling
		if strings.EqualFold(m.RuleType, "grammar") {
			code = CodeSpellingGrammar
		}
		items = append(items, s.resolve.fail(code, map[string]any{
			"word":    m.Word,
			"message": m.Message,
			"context": m.Context,
		}))
	}

	if len(items) == 0 {
		items = s.resolve.summaryPass(CodeSpellingClean, map[string]any{
			"matches":           len(resp.Matches),
			"suppressedAsNames": suppressed,
			"language":          s.language,
		})
	} else if suppressed > 0 {
		s.logger.Debug("suppressed probable proper nouns",
			zap.String("url", target.URL),
			zap.Int("count", suppressed))
	}
	return singleReport(markIgnored(items, target.IgnoredCodes), map[string]any{
		"matches":           len(resp.Matches),
		"suppressedAsNames": suppressed,
	}), nil
}
