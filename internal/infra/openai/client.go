package openai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jinford/transcript-digest/internal/core/generative"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultModel はデフォルトで使用するOpenAIモデル
	DefaultModel = "gpt-4o-mini"

	// DefaultTimeout はAPI呼び出しのデフォルトタイムアウト
	DefaultTimeout = 120 * time.Second
)

// ErrAPIKeyNotSet はAPIキーが設定されていない場合のエラー
var ErrAPIKeyNotSet = errors.New("OpenAI API key not set: please set OPENAI_API_KEY environment variable")

// Backend は OpenAI API を使用した生成バックエンド実装
// リトライとレート制限は generative.RetryingClient 側が担うため、
// ここでは1回のAPI呼び出しのみを行う
type Backend struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewBackend は新しい Backend を作成する
// APIキーは環境変数 OPENAI_API_KEY から読み込む
func NewBackend() (*Backend, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	return NewBackendWithAPIKey(apiKey, DefaultModel)
}

// NewBackendWithAPIKey はAPIキーとモデルを指定して Backend を作成する
func NewBackendWithAPIKey(apiKey, model string) (*Backend, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyNotSet
	}
	if model == "" {
		model = DefaultModel
	}

	return &Backend{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		timeout: DefaultTimeout,
	}, nil
}

// SetTimeout はAPIコールのタイムアウトを設定する
func (b *Backend) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// ModelName はデフォルトのモデル名を返す
func (b *Backend) ModelName() string {
	return b.model
}

// Generate は OpenAI API を使用してテキストを生成する
func (b *Backend) Generate(ctx context.Context, req generative.Request) (generative.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	model := b.model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(req.Temperature),
	}

	if req.MaxOutputTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxOutputTokens))
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return generative.Response{}, fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(completion.Choices) == 0 {
		return generative.Response{}, fmt.Errorf("no completion choices returned")
	}

	return generative.Response{
		Content:    completion.Choices[0].Message.Content,
		TokensUsed: int(completion.Usage.TotalTokens),
		Model:      string(completion.Model),
	}, nil
}

// インターフェース実装の確認
var _ generative.Backend = (*Backend)(nil)
