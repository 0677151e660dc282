// Package quiz generates topic questions from an indexed document and grades
// the student's answers against it.
package quiz

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"learnassist/internal/domain"
)

// Result is the evaluation of one answered question.
type Result struct {
	Question    string
	Answer      string
	Score       int
	Feedback    string
	Improvement string
	Raw         string
}

// Report aggregates the results of a quiz run. Max is always ten points per
// question, whatever the individual replies claim.
type Report struct {
	Results []Result
	Total   int
	Max     int
}

// Render formats the report for display.
func (r Report) Render() string {
	blocks := lo.Map(r.Results, func(res Result, _ int) string {
		return fmt.Sprintf("Q: %s\nA: %s\n%s", res.Question, res.Answer, res.Raw)
	})
	return strings.Join(blocks, "\n\n---\n\n") + fmt.Sprintf("\nFinal Score: %d / %d", r.Total, r.Max)
}

type Orchestrator struct {
	generator   domain.Generator
	temperature float64
	log         *zap.Logger
}

func NewOrchestrator(generator domain.Generator, temperature float64, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{generator: generator, temperature: temperature, log: log}
}

// GenerateQuestions asks for three exam questions on topic, grounded in the
// passages the answerer retrieves for it. An unparseable reply yields
// domain.ErrNoQuestions.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, answerer domain.Answerer, topic string) ([]string, error) {
	grounding, err := answerer.Answer(ctx, "Give study material or explanation about: "+topic)
	if err != nil {
		return nil, err
	}
	prompt, err := questionPrompt(topic, grounding.Context)
	if err != nil {
		return nil, err
	}
	reply, err := o.generator.Generate(ctx, prompt, o.temperature)
	if err != nil {
		return nil, err
	}
	questions := ParseQuestions(strings.TrimSpace(reply))
	if len(questions) == 0 {
		o.log.Warn("no questions in reply", zap.String("topic", topic), zap.String("reply", reply))
		return nil, domain.ErrNoQuestions
	}
	o.log.Info("questions generated", zap.String("topic", topic), zap.Int("count", len(questions)))
	return questions, nil
}

// Evaluate grades each answer against the passages retrieved for its
// question. Pairs are zipped to the shorter list. A reply without a readable
// score counts as 0 and does not stop the run; provider failures do.
func (o *Orchestrator) Evaluate(ctx context.Context, answerer domain.Answerer, questions, answers []string) (Report, error) {
	n := min(len(questions), len(answers))
	results := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		res, err := o.evaluateOne(ctx, answerer, questions[i], answers[i])
		if err != nil {
			return Report{}, fmt.Errorf("evaluate question %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return Report{
		Results: results,
		Total:   lo.SumBy(results, func(r Result) int { return r.Score }),
		Max:     10 * len(questions),
	}, nil
}

func (o *Orchestrator) evaluateOne(ctx context.Context, answerer domain.Answerer, question, answer string) (Result, error) {
	grounding, err := answerer.Answer(ctx, "Context for: "+question)
	if err != nil {
		return Result{}, err
	}
	prompt, err := evaluationPrompt(question, answer, grounding.Context)
	if err != nil {
		return Result{}, err
	}
	reply, err := o.generator.Generate(ctx, prompt, o.temperature)
	if err != nil {
		return Result{}, err
	}
	raw := strings.TrimSpace(reply)
	score, ok := ParseScore(raw)
	if !ok {
		o.log.Warn("unreadable score, counting 0", zap.String("question", question), zap.String("reply", raw))
	}
	return Result{
		Question:    question,
		Answer:      answer,
		Score:       score,
		Feedback:    field(raw, "Feedback"),
		Improvement: field(raw, "Improvement"),
		Raw:         raw,
	}, nil
}
