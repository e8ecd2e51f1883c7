package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"uploader/internal/config"
	"uploader/internal/logger"
	"uploader/internal/safety"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const systemPrompt = `You review products for a Korean online marketplace before they are listed.
Decide whether the product may be sold without special certification or licensing.
Reject adult goods, medical devices, medicines, counterfeit or trademarked brand goods,
weapons and anything needing KC certification for children.
Answer with JSON only: {"safe": true|false, "reason": "<one short sentence in Korean>"}`

// chatModel is the part of the eino chat model the reviewer uses.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Reviewer answers strict-tier safety checks with a Gemini model.
type Reviewer struct {
	chat   chatModel
	logger *logger.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Reviewer, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiBaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.GeminiBaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	temperature := float32(0)
	maxTokens := 256
	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.GeminiModel,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating review model: %w", err)
	}

	return NewWithModel(chat, logger), nil
}

func NewWithModel(chat chatModel, logger *logger.Logger) *Reviewer {
	return &Reviewer{chat: chat, logger: logger}
}

func (r *Reviewer) Review(ctx context.Context, in safety.Input) (safety.Review, error) {
	prompt := fmt.Sprintf("상품명: %s\n카테고리: %s\n설명: %s", in.Name, in.Category, in.Description)

	resp, err := r.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		r.logger.Error("strict review call failed for %q: %v", in.Name, err)
		return safety.Review{}, fmt.Errorf("review model: %w", err)
	}
	if resp == nil {
		return safety.Review{}, fmt.Errorf("review model returned no message")
	}

	review, err := parseReview(resp.Content)
	if err != nil {
		r.logger.Error("unparseable strict review for %q: %v", in.Name, err)
		return safety.Review{}, err
	}
	r.logger.Debug("strict review %q safe=%t reason=%s", in.Name, review.Safe, review.Reason)
	return review, nil
}

// parseReview accepts a bare JSON object or one wrapped in a code fence.
func parseReview(content string) (safety.Review, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return safety.Review{}, fmt.Errorf("no JSON object in review response")
	}

	var out struct {
		Safe   *bool  `json:"safe"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return safety.Review{}, fmt.Errorf("decode review response: %w", err)
	}
	if out.Safe == nil {
		return safety.Review{}, fmt.Errorf("review response has no verdict")
	}
	return safety.Review{Safe: *out.Safe, Reason: out.Reason}, nil
}
