package config

import (
	"fmt"
	"os"

	"github.com/rsawant/fieldledger/internal/llm"
	"github.com/spf13/viper"
)

// keySlots are the limiter slot names, in preference order.
var keySlots = []string{"primary", "secondary", "tertiary"}

// LoadLLMConfig loads the AI extraction configuration. Credentials come
// from the config file (llm.keys.<slot>) or from GEMINI_API_KEY,
// GEMINI_API_KEY_2, GEMINI_API_KEY_3. At least one key is required.
func LoadLLMConfig() (*llm.Config, error) {
	cfg := llm.Config{
		Provider:    viper.GetString("llm.provider"),
		Model:       viper.GetString("llm.model"),
		Temperature: viper.GetFloat64("llm.temperature"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Timeout:     viper.GetDuration("llm.timeout"),
		APIKeys:     make(map[string]string),
	}

	if cfg.Provider == "" {
		cfg.Provider = "gemini"
	}

	envNames := []string{"GEMINI_API_KEY", "GEMINI_API_KEY_2", "GEMINI_API_KEY_3"}
	for i, slot := range keySlots {
		key := viper.GetString("llm.keys." + slot)
		if key == "" {
			key = os.Getenv(envNames[i])
		}
		if key != "" {
			cfg.APIKeys[slot] = key
		}
	}

	if len(cfg.APIKeys) == 0 {
		return nil, fmt.Errorf("no AI API keys configured: set llm.keys.primary or GEMINI_API_KEY")
	}

	return &cfg, nil
}
