package quiz

import "github.com/tmc/langchaingo/prompts"

var questionTemplate = prompts.NewPromptTemplate(`
You are an expert question setter.

Based on the following textbook content related to the topic **{{.topic}}**, generate 3 relevant exam-style questions.

Textbook Excerpt:
"""{{.context}}"""

Output Format:
1. <Question>
2. <Question>
3. <Question>
`, []string{"topic", "context"})

var evaluationTemplate = prompts.NewPromptTemplate(`
You are an expert academic evaluator.

Using the provided textbook content, evaluate the student's answer for the question below.

Be strict but fair. Consider the following:
- Factual correctness
- Completeness of the answer
- Relevance to the textbook context
- Clarity and understanding

Give the final result in this format:

Score: <1-10>
Feedback: <brief but specific comment>
Improvement: <one suggestion for a better answer>

---

Question: {{.question}}

Student's Answer:
"""{{.answer}}"""

Textbook Context:
"""{{.context}}"""
`, []string{"question", "answer", "context"})

func questionPrompt(topic, context string) (string, error) {
	return questionTemplate.Format(map[string]any{"topic": topic, "context": context})
}

func evaluationPrompt(question, answer, context string) (string, error) {
	return evaluationTemplate.Format(map[string]any{
		"question": question,
		"answer":   answer,
		"context":  context,
	})
}
