package dto

// ModelConfig is the per-provider connection block inside agent settings.
type ModelConfig struct {
	Provider    string  `json:"provider"`
	Name        string  `json:"name"`
	ApiKey      string  `json:"api_key"`
	BaseUrl     string  `json:"base_url"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	TopP        float64 `json:"top_p"`
}

type ModelInfo struct {
	Provider          string `json:"provider"`
	Name              string `json:"name"`
	DisplayName       string `json:"display_name"`
	Description       string `json:"description"`
	MaxTokens         int    `json:"max_tokens"`
	SupportsFunctions bool   `json:"supports_functions"`
	SupportsVision    bool   `json:"supports_vision,omitempty"`
}

type TestConnectionRequest struct {
	ModelConfig ModelConfig `json:"model_config"`
}

type TestConnectionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Model   string `json:"model,omitempty"`
	Latency string `json:"latency,omitempty"`
}
