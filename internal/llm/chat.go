package llm

import (
	"context"
	"encoding/json"

	"github.com/gorewood/ragprompt/internal/output"
)

// Chat completions wire types, shared by OpenAI and local servers.
type chatRequest struct {
	Model       string        `json:"model,omitempty"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete generates a completion for the given request.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	respBody, err := c.doRequest(ctx, c.baseURL+"/chat/completions", c.buildChatRequest(req))
	if err != nil {
		return nil, err
	}
	return parseChatResponse(respBody, c.model)
}

func (c *Client) buildChatRequest(req Request) chatRequest {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	// Local servers use whatever model is loaded when none is named.
	model := c.model
	if c.provider == ProviderLocal && (model == "default" || model == "local") {
		model = ""
	}

	body := chatRequest{Model: model, Messages: messages}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		body.Temperature = req.Temperature
	}
	return body
}

func parseChatResponse(respBody []byte, model string) (*Response, error) {
	var result chatResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, output.NewSystemErrorWithCause("failed to parse response", err)
	}

	if result.Error != nil {
		return nil, output.NewSystemError("API error: " + result.Error.Message)
	}

	if len(result.Choices) == 0 {
		return nil, output.NewSystemError("empty response from API")
	}

	responseModel := result.Model
	if responseModel == "" {
		responseModel = model
	}
	if responseModel == "" || responseModel == "default" {
		responseModel = "local"
	}

	return &Response{Content: result.Choices[0].Message.Content, Model: responseModel}, nil
}
