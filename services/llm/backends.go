package llm

import (
	"fmt"

	"github.com/AleutianAI/sitka/services/datatypes"
)

// NewBackend is the default BackendFactory: it builds the real client for
// one provider config.
func NewBackend(cfg datatypes.ProviderConfig) (Client, error) {
	switch cfg.Kind {
	case datatypes.KindOpenAI:
		return NewOpenAIClient(cfg.Credential), nil
	case datatypes.KindDeepSeek:
		return NewDeepSeekClient(cfg.Credential), nil
	case datatypes.KindAnthropic:
		return NewAnthropicClient(cfg.Credential), nil
	case datatypes.KindGemini:
		return NewGeminiClient(cfg.Credential), nil
	default:
		return nil, fmt.Errorf("unknown backend kind %q", cfg.Kind)
	}
}
