package llm

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared/constant"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"kbsearch/app/internal/helpcenter"
)

type fakeChatService struct {
	response   *openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
}

func (f *fakeChatService) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	f.lastParams = body
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newFakeClient(chat *fakeChatService) *Client {
	return &Client{chat: chat, logger: silentLogger(), baseURL: "https://fake-llm-provider.ai/api/v1"}
}

func completionWithContent(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		ID:     "answer-1",
		Model:  "test-model",
		Object: constant.ValueOf[constant.ChatCompletion](),
		Choices: []openai.ChatCompletionChoice{
			{
				FinishReason: "stop",
				Index:        0,
				Message: openai.ChatCompletionMessage{
					Content: content,
					Role:    constant.ValueOf[constant.Assistant](),
				},
			},
		},
	}
}

func TestNewAnswererRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewAnswerer(AnswererOptions{Model: "m"}); err == nil {
		t.Fatalf("expected error when client is missing")
	}
}

func TestNewAnswererRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewAnswerer(AnswererOptions{Client: newFakeClient(&fakeChatService{})}); err == nil {
		t.Fatalf("expected error when model is missing")
	}
}

func TestAnswerIncludesSourcesInPrompt(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWithContent("Puedes retirar sin tarjeta desde la app.")}
	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(chat), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	sources := []helpcenter.Source{
		{ID: "1", Title: "Retiros", Body: "Así se retira.", HTMLURL: "https://support.example.com/articles/1"},
	}

	answer, err := answerer.Answer(context.Background(), "¿cómo retiro?", sources)
	if err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	if answer != "Puedes retirar sin tarjeta desde la app." {
		t.Fatalf("unexpected answer %q", answer)
	}

	if chat.lastParams.Model != "answer-model" {
		t.Fatalf("expected model answer-model, got %s", chat.lastParams.Model)
	}

	if len(chat.lastParams.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(chat.lastParams.Messages))
	}
}

func TestBuildAnswerPromptWithSources(t *testing.T) {
	t.Parallel()

	sources := []helpcenter.Source{
		{ID: "1", Title: "Retiros", Body: "Así se retira.", HTMLURL: "https://support.example.com/articles/1"},
		{ID: "2", Title: "Tarifas", Body: "Sin costo.", HTMLURL: "https://support.example.com/articles/2"},
	}

	prompt := buildAnswerPrompt("¿cómo retiro?", sources)

	if !strings.Contains(prompt, "Article 1: Retiros") || !strings.Contains(prompt, "Así se retira.") {
		t.Fatalf("expected first source in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "Article 2: Tarifas") {
		t.Fatalf("expected second source in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "Question: ¿cómo retiro?") {
		t.Fatalf("expected question in prompt, got %q", prompt)
	}
}

func TestAnswerWithoutSourcesAcknowledgesGap(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: completionWithContent("No encontré artículos sobre eso.")}
	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(chat), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	if _, err := answerer.Answer(context.Background(), "algo raro", nil); err != nil {
		t.Fatalf("Answer returned error: %v", err)
	}

	prompt := buildAnswerPrompt("algo raro", nil)
	if !strings.Contains(prompt, "No relevant help-center articles") {
		t.Fatalf("expected empty-context preamble in prompt, got %q", prompt)
	}
}

func TestAnswerRequiresQuestion(t *testing.T) {
	t.Parallel()

	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(&fakeChatService{}), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	if _, err := answerer.Answer(context.Background(), "   ", nil); err == nil {
		t.Fatalf("expected error for blank question")
	}
}

func TestAnswerPropagatesCompletionError(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{err: eris.New("upstream unavailable")}
	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(chat), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	if _, err := answerer.Answer(context.Background(), "pregunta", nil); err == nil {
		t.Fatalf("expected completion error to propagate")
	}
}

func TestAnswerRejectsEmptyCompletion(t *testing.T) {
	t.Parallel()

	chat := &fakeChatService{response: &openai.ChatCompletion{Object: constant.ValueOf[constant.ChatCompletion]()}}
	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(chat), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	if _, err := answerer.Answer(context.Background(), "pregunta", nil); err == nil {
		t.Fatalf("expected error when completion has no choices")
	}
}

func TestAnswerRejectsRefusal(t *testing.T) {
	t.Parallel()

	response := completionWithContent("")
	response.Choices[0].Message.Refusal = "cannot help with that"

	chat := &fakeChatService{response: response}
	answerer, err := NewAnswerer(AnswererOptions{Client: newFakeClient(chat), Model: "answer-model"})
	if err != nil {
		t.Fatalf("NewAnswerer returned error: %v", err)
	}

	if _, err := answerer.Answer(context.Background(), "pregunta", nil); err == nil {
		t.Fatalf("expected refusal to surface as error")
	}
}
