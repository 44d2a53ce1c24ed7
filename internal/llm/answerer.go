package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/helpcenter"
)

// Answerer produces an answer to a user question grounded in retrieved
// knowledge-base sources.
type Answerer interface {
	Answer(ctx context.Context, question string, sources []helpcenter.Source) (string, error)
}

// AnswererOptions configures the OpenRouter-backed answerer.
type AnswererOptions struct {
	Client       *Client
	Model        string
	Temperature  float64
	SystemPrompt string
}

type answerer struct {
	client       *Client
	logger       *logrus.Logger
	model        string
	temperature  float64
	systemPrompt string
}

const (
	defaultAnswererSystemPrompt = "You are a helpful support assistant. Answer the user's question using only the provided help-center articles. If the articles do not contain enough information to fully answer the question, say so and share what you can. Answer in the language of the question."
	defaultAnswererTemperature  = 0.1
)

// NewAnswerer constructs an Answerer implementation backed by OpenRouter.
func NewAnswerer(opts AnswererOptions) (Answerer, error) {
	if opts.Client == nil {
		return nil, eris.New("llm client is required")
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		return nil, eris.New("answer model is required")
	}

	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = defaultAnswererTemperature
	}

	systemPrompt := strings.TrimSpace(opts.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultAnswererSystemPrompt
	}

	return &answerer{
		client:       opts.Client,
		logger:       opts.Client.logger,
		model:        model,
		temperature:  temperature,
		systemPrompt: systemPrompt,
	}, nil
}

func (a *answerer) Answer(ctx context.Context, question string, sources []helpcenter.Source) (string, error) {
	trimmedQuestion := strings.TrimSpace(question)
	if trimmedQuestion == "" {
		return "", eris.New("question is required")
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(a.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(a.systemPrompt),
			openai.UserMessage(buildAnswerPrompt(trimmedQuestion, sources)),
		},
		Temperature: openai.Float(a.temperature),
	}

	completion, err := a.client.chat.New(ctx, params)
	if err != nil {
		a.logError(logrus.Fields{"question": trimmedQuestion}, err, "requesting answer completion")
		return "", eris.Wrap(err, "requesting answer completion")
	}

	if len(completion.Choices) == 0 {
		err := eris.New("llm completion returned no choices")
		a.logError(logrus.Fields{"question": trimmedQuestion}, err, "answer completion empty")
		return "", err
	}

	choice := completion.Choices[0]
	if reason := strings.TrimSpace(choice.FinishReason); strings.EqualFold(reason, "content_filter") {
		err := eris.New("llm blocked the answer via content filter")
		a.logError(logrus.Fields{"question": trimmedQuestion}, err, "answer blocked")
		return "", err
	}

	if refusal := strings.TrimSpace(choice.Message.Refusal); refusal != "" {
		err := eris.Errorf("llm refused to answer: %s", refusal)
		a.logError(logrus.Fields{"question": trimmedQuestion}, err, "answer refused")
		return "", err
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		err := eris.New("llm answer is empty")
		a.logError(logrus.Fields{"question": trimmedQuestion}, err, "empty answer response")
		return "", err
	}

	return content, nil
}

// buildAnswerPrompt assembles the user message: the retrieved articles as
// context blocks, then the question. Without sources the model is told the
// knowledge base came up empty so it can acknowledge the limitation.
func buildAnswerPrompt(question string, sources []helpcenter.Source) string {
	if len(sources) == 0 {
		return fmt.Sprintf("No relevant help-center articles were found for this question.\n\nQuestion: %s", question)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "Help-center articles (%d):\n\n", len(sources))
	for i, source := range sources {
		fmt.Fprintf(&builder, "Article %d: %s\nURL: %s\n%s\n\n", i+1, source.Title, source.HTMLURL, source.Body)
	}
	fmt.Fprintf(&builder, "Question: %s", question)

	return builder.String()
}

func (a *answerer) logError(fields logrus.Fields, err error, message string) {
	if a.logger == nil {
		return
	}
	a.logger.WithFields(fields).WithError(err).Error(message)
}
