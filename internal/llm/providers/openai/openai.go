// internal/llm/providers/openai/openai.go
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Corphon/yt2blog/internal/llm"
)

// compatible lists the hosted APIs that serve OpenAI style chat completions.
var compatible = []struct {
	key          string
	name         string
	baseURL      string
	defaultModel string
	models       []string
}{
	{"openai", "OpenAI", "https://api.openai.com/v1", "gpt-4", []string{"gpt-4", "gpt-4o", "gpt-4o-mini"}},
	{"groq", "Groq", "https://api.groq.com/openai/v1", "llama-3.3-70b-versatile", []string{"llama-3.3-70b-versatile", "llama-3.1-8b-instant"}},
	{"openrouter", "OpenRouter", "https://openrouter.ai/api/v1", "openai/gpt-4o-mini", []string{"openai/gpt-4o-mini", "anthropic/claude-3.5-sonnet", "meta-llama/llama-3.3-70b-instruct"}},
	{"grok", "xAI Grok", "https://api.x.ai/v1", "grok-3-mini", []string{"grok-3", "grok-3-mini"}},
	{"qwen", "Qwen", "https://dashscope.aliyuncs.com/compatible-mode/v1", "qwen-plus", []string{"qwen-max", "qwen-plus", "qwen-turbo"}},
	{"glm", "Zhipu GLM", "https://open.bigmodel.cn/api/paas/v4", "glm-4-flash", []string{"glm-4-plus", "glm-4-flash"}},
	{"githubmodels", "GitHub Models", "https://models.inference.ai.azure.com", "gpt-4o-mini", []string{"gpt-4o", "gpt-4o-mini"}},
}

func init() {
	for _, c := range compatible {
		llm.Register(c.key, func() llm.Provider {
			return &Provider{
				name:              c.name,
				baseURL:           c.baseURL,
				defaultModel:      c.defaultModel,
				recommendedModels: append([]string(nil), c.models...),
			}
		})
	}
}

// Provider speaks the OpenAI chat completions protocol.
type Provider struct {
	name              string
	apiKey            string
	baseURL           string
	client            *http.Client
	defaultModel      string
	recommendedModels []string
}

func (p *Provider) Initialize(config map[string]string) error {
	apiKey := config["api_key"]
	if apiKey == "" {
		return fmt.Errorf("%s API key not provided", p.name)
	}

	p.apiKey = apiKey
	p.client = &http.Client{}

	if model := config["default_model"]; model != "" {
		p.defaultModel = model
	}
	if baseURL := config["base_url"]; baseURL != "" {
		p.baseURL = baseURL
	}
	p.baseURL = strings.TrimRight(p.baseURL, "/")

	return nil
}

func (p *Provider) GetName() string {
	return p.name
}

func (p *Provider) GetSupportedModels() []string {
	return p.recommendedModels
}

func (p *Provider) CompleteText(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	messages := []map[string]string{
		{"role": "user", "content": req.Prompt},
	}
	if req.SystemPrompt != "" {
		messages = append([]map[string]string{
			{"role": "system", "content": req.SystemPrompt},
		}, messages...)
	}

	requestBody := map[string]interface{}{
		"model":    model,
		"messages": messages,
	}
	if req.Temperature > 0 {
		requestBody["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		requestBody["max_tokens"] = req.MaxTokens
	}
	if len(req.StopWords) > 0 {
		requestBody["stop"] = req.StopWords
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
		return nil, fmt.Errorf("%s API error (%d): %s", p.name, httpResp.StatusCode, strings.TrimSpace(string(body)))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
		Model string `json:"model"`
	}
	if err := json.NewDecoder(httpResp.Body).Decode(&response); err != nil {
		return nil, err
	}

	if len(response.Choices) == 0 {
		return nil, errors.New(p.name + " returned no choices")
	}

	modelName := response.Model
	if modelName == "" {
		modelName = model
	}
	return &llm.CompletionResponse{
		Text:         response.Choices[0].Message.Content,
		FinishReason: response.Choices[0].FinishReason,
		TokensUsed:   response.Usage.TotalTokens,
		PromptTokens: response.Usage.PromptTokens,
		OutputTokens: response.Usage.CompletionTokens,
		ModelName:    modelName,
		ProviderName: p.GetName(),
	}, nil
}
