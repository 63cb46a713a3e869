package generation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"studysync-service/internal/domain"
)

var (
	fencePattern = regexp.MustCompile("```(?i:json)?")
	arrayPattern = regexp.MustCompile(`(?s)\[.*\]`)
)

// extractArray finds the JSON array in a free-text completion.
//
// The cleaned text is first decoded strictly; if that fails the outermost [...] block is
// pulled out of the surrounding prose and decoded instead.
func extractArray(text string) ([]json.RawMessage, bool) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(text, ""))
	if items, ok := decodeArray(cleaned); ok {
		return items, true
	}
	if match := arrayPattern.FindString(cleaned); match != "" {
		return decodeArray(match)
	}
	return nil, false
}

func decodeArray(text string) ([]json.RawMessage, bool) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, false
	}
	return items, true
}

type rawSection struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// parseSections decodes sections, skipping items that are not section objects.
func parseSections(text string) ([]domain.Section, bool) {
	items, ok := extractArray(text)
	if !ok {
		return nil, false
	}
	sections := make([]domain.Section, 0, len(items))
	for _, item := range items {
		var raw rawSection
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		title := strings.TrimSpace(raw.Title)
		content := strings.TrimSpace(raw.Content)
		if title == "" && content == "" {
			continue
		}
		sections = append(sections, domain.Section{Title: title, Content: content})
	}
	return sections, len(sections) > 0
}

type rawQuestion struct {
	Question      string                `json:"question"`
	Options       []string              `json:"options"`
	CorrectAnswer *domain.CorrectAnswer `json:"correctAnswer"`
}

// parseQuiz decodes up to limit well-formed questions. A question needs text, exactly
// four options and a correct answer naming one of them.
func parseQuiz(text string, limit int) (domain.Quiz, bool) {
	items, ok := extractArray(text)
	if !ok {
		return domain.Quiz{Questions: []domain.Question{}}, false
	}
	questions := make([]domain.Question, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(questions) == limit {
			break
		}
		var raw rawQuestion
		if err := json.Unmarshal(item, &raw); err != nil {
			continue
		}
		q, ok := normalizeQuestion(raw)
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	return domain.Quiz{Questions: questions}, len(questions) > 0
}

func normalizeQuestion(raw rawQuestion) (domain.Question, bool) {
	text := strings.TrimSpace(raw.Question)
	if text == "" || len(raw.Options) != domain.OptionsPerQuestion || raw.CorrectAnswer == nil {
		return domain.Question{}, false
	}
	options := make([]string, len(raw.Options))
	for i, opt := range raw.Options {
		options[i] = strings.TrimSpace(opt)
		if options[i] == "" {
			return domain.Question{}, false
		}
	}
	answer := *raw.CorrectAnswer
	if !answer.Resolve(options) {
		return domain.Question{}, false
	}
	return domain.Question{Question: text, Options: options, CorrectAnswer: answer}, true
}
