package llm

import "strings"

// CustomOpenAI talks to any self-hosted server speaking the OpenAI chat API (vLLM, LM Studio, llama.cpp).
type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(baseURL, apiKey, model string) *CustomOpenAI {
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			BaseURL:    strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1"),
			APIKey:     apiKey,
			Model:      model,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
