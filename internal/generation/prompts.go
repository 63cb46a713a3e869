package generation

import (
	"fmt"

	"studysync-service/internal/domain"
)

func sectionsPrompt(notes string) string {
	return fmt.Sprintf(`Create a numbered list of sections based on the following study notes. Each section should have a title and a brief content summary. Format the output as a JSON array of objects with 'title' and 'content' properties.

Study Notes:
%s`, notes)
}

func quizPrompt(req domain.QuizRequest) string {
	return fmt.Sprintf(`Create a multiple-choice quiz based on the following study notes for the section titled %q (Section %d). Generate %d questions with %d options each. Format the output as a JSON array of objects with 'question', 'options', and 'correctAnswer' properties, where 'correctAnswer' is the zero-based index of the correct option.

Study Notes:
%s`, req.SectionTitle, req.SectionIndex+1, req.QuestionCount, domain.OptionsPerQuestion, req.SectionContent)
}
