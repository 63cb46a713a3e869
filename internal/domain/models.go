package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// RoomConfig is supplied by the room creator.
type RoomConfig struct {
	StudyNotes       string `json:"studyNotes"`
	QuizInterval     int    `json:"quizInterval"`
	QuestionsPerQuiz int    `json:"questionsPerQuiz"`
}

// Participant is a named, scored member of a room tied to one live connection.
type Participant struct {
	ConnID      string
	DisplayName string
	Score       float64

	seq uint64
}

// LeaderboardEntry is a derived view of a participant; it is never stored.
type LeaderboardEntry struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Section is one topic unit derived from study notes, addressed by position.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// OptionsPerQuestion is the number of choices every generated question carries.
const OptionsPerQuestion = 4

// Question models a multiple-choice question.
type Question struct {
	Question      string        `json:"question"`
	Options       []string      `json:"options"`
	CorrectAnswer CorrectAnswer `json:"correctAnswer"`
}

// Quiz is a set of questions generated for one section. It is broadcast and then forgotten.
type Quiz struct {
	Questions []Question `json:"questions"`
}

// QuizRequest carries everything needed to generate a quiz for a section.
type QuizRequest struct {
	SectionContent string
	QuestionCount  int
	SectionTitle   string
	SectionIndex   int
}

// ChatMessage is a chat line; Text is already prefixed with the sender name when broadcast.
type ChatMessage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// CorrectAnswer marks the correct option of a question.
//
// Generated output names the answer either by index or by repeating the option text.
// Index holds the resolved position when known; Text holds the raw string form until
// Resolve maps it onto the options.
type CorrectAnswer struct {
	Index int
	Text  string
}

// MarshalJSON always emits the resolved index.
func (a CorrectAnswer) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Index)
}

// UnmarshalJSON accepts a number or a string.
func (a *CorrectAnswer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		a.Index = -1
		a.Text = s
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("correct answer: %w", err)
	}
	if f != float64(int(f)) {
		return fmt.Errorf("correct answer: non-integer index %v", f)
	}
	a.Index = int(f)
	a.Text = ""
	return nil
}

// Resolve maps the answer onto options and reports whether it names one of them.
func (a *CorrectAnswer) Resolve(options []string) bool {
	if a.Text != "" {
		want := strings.TrimSpace(a.Text)
		for i, opt := range options {
			if strings.EqualFold(strings.TrimSpace(opt), want) {
				a.Index = i
				a.Text = ""
				return true
			}
		}
		// "2" or "C" style answers.
		if n, err := strconv.Atoi(want); err == nil && n >= 0 && n < len(options) {
			a.Index, a.Text = n, ""
			return true
		}
		if len(want) == 1 {
			if n := int(unicode.ToUpper(rune(want[0])) - 'A'); n >= 0 && n < len(options) {
				a.Index, a.Text = n, ""
				return true
			}
		}
		return false
	}
	return a.Index >= 0 && a.Index < len(options)
}
