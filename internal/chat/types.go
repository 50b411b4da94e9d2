package chat

// Message is a single turn of a conversation as sent to the backend.
type Message struct {
	Role    string `json:"role"` // user, assistant, system
	Content string `json:"content"`
}

// ContentPart is one element of a multi-part message body. Text parts carry
// Text, image parts carry ImageURL with a data URL or a fetchable URL.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL wraps an image reference for vision-capable models.
type ImageURL struct {
	URL string `json:"url"`
}

// Params are the sampling parameters attached to every completion request.
type Params struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

// Usage reports token accounting returned by the backend.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type completionRequest struct {
	Model       string  `json:"model"`
	Messages    []any   `json:"messages"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type partsMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}
