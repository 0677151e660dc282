package service

import "github.com/tmc/langchaingo/prompts"

var answerTemplate = prompts.NewPromptTemplate(
	`Use the following pieces of context to answer the question at the end. If you don't know the answer, just say that you don't know, don't try to make up an answer.

{{.context}}

Question: {{.question}}
Helpful Answer:`,
	[]string{"context", "question"},
)

func answerPrompt(context, question string) (string, error) {
	return answerTemplate.Format(map[string]any{
		"context":  context,
		"question": question,
	})
}
