package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const maxPromptText = 4000

// LLM asks a chat-completion model for a category.
type LLM struct {
	client *openai.Client
	model  string
}

// NewLLM returns nil when apiKey is empty.
func NewLLM(apiKey, baseURL, model string) *LLM {
	if strings.TrimSpace(apiKey) == "" {
		return nil
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &LLM{client: openai.NewClientWithConfig(cfg), model: model}
}

type llmAnswer struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	Reason     string  `json:"reason"`
}

var (
	catRe  = regexp.MustCompile(`(?i)category["']?\s*[:\-]\s*["']?([A-Za-z0-9,/ \t]+)["']?`)
	confRe = regexp.MustCompile(`(?i)confidence.*?(\d{1,3})`)
)

func (l *LLM) Guess(ctx context.Context, text string, categories []string) (string, float64, string, error) {
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	prompt := fmt.Sprintf(`You are an assistant that classifies website pages into categories.
Predefined categories (if given): %s
If there is a clear category, return JSON: {"category":"...", "confidence":0-100, "reason":"short explanation"}
If multiple apply, return a comma-separated category string in "category".
Page text (first %d chars):
%s`, strings.Join(categories, ", "), maxPromptText, text)

	resp, err := l.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       l.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		MaxTokens:   300,
		Temperature: 0,
	})
	if err != nil {
		return "", 0, "", fmt.Errorf("llm classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", 0, "", fmt.Errorf("llm classify: no choices")
	}
	cat, conf, reason := parseAnswer(strings.TrimSpace(resp.Choices[0].Message.Content))
	return cat, conf, reason, nil
}

// parseAnswer reads the JSON object in reply, falling back to loose
// "category: ..." / "confidence ... NN" scraping. Confidence comes back in
// 0-100 and defaults to 60 when absent.
func parseAnswer(reply string) (string, float64, string) {
	if i := strings.Index(reply, "{"); i >= 0 {
		var a llmAnswer
		if err := json.NewDecoder(strings.NewReader(reply[i:])).Decode(&a); err == nil && a.Category != "" {
			return strings.TrimSpace(a.Category), a.Confidence / 100, a.Reason
		}
	}
	cat := ""
	if m := catRe.FindStringSubmatch(reply); m != nil {
		cat = strings.TrimSpace(m[1])
	} else if line, _, _ := strings.Cut(reply, "\n"); line != "" {
		cat = line
		if len(cat) > 100 {
			cat = cat[:100]
		}
	}
	conf := 0.6
	if m := confRe.FindStringSubmatch(reply); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			conf = float64(n) / 100
		}
	}
	return cat, conf, reply
}
