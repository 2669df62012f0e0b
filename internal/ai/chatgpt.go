package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/lookup"
)

const (
	DefaultAPIURL = "https://api.openai.com/v1/chat/completions"
	DefaultModel  = "gpt-4o-mini"
)

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ChatGPT represents a client for an OpenAI-compatible chat completions API
// that explains words for English learners
type ChatGPT struct {
	apiKey      string
	apiURL      string
	model       string
	maxTokens   int
	temperature float64
	httpClient  *http.Client
	logger      *zap.Logger

	mu    sync.Mutex
	cache map[string]*lookup.Definition
}

// New creates a new ChatGPT client
func New(apiKey, apiURL, model string, logger *zap.Logger) (*ChatGPT, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if model == "" {
		model = DefaultModel
	}

	return &ChatGPT{
		apiKey:      apiKey,
		apiURL:      apiURL,
		model:       model,
		maxTokens:   200,
		temperature: 0.3,
		httpClient:  &http.Client{Timeout: 20 * time.Second},
		logger:      logger,
		cache:       make(map[string]*lookup.Definition),
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type wordDefinition struct {
	English      string `json:"english"`
	Translation  string `json:"translation"`
	PartOfSpeech string `json:"partOfSpeech"`
}

func definitionPrompt(word, sentence string) string {
	var b strings.Builder
	if sentence != "" {
		fmt.Fprintf(&b, "Given the word %q in this sentence: %q\n\n", word, sentence)
	} else {
		fmt.Fprintf(&b, "Given the word %q\n\n", word)
	}
	b.WriteString("Please provide:\n")
	b.WriteString("1. A concise English definition suitable for English learners (1-2 sentences max)\n")
	b.WriteString("2. A Chinese translation that is natural and easy to understand\n")
	if sentence != "" {
		b.WriteString("3. The part of speech as used in this context\n\n")
	} else {
		b.WriteString("3. The most common part of speech\n\n")
	}
	b.WriteString("Respond in JSON format only:\n")
	b.WriteString(`{"english": "definition here", "translation": "中文翻译", "partOfSpeech": "verb/noun/adjective/etc"}`)
	return b.String()
}

// LookupDefinition asks the model for a learner definition of word as used in sentence.
// Results are cached per word and sentence.
func (c *ChatGPT) LookupDefinition(ctx context.Context, word, sentence string) (*lookup.Definition, error) {
	clean := lookup.CleanWord(word)
	if clean == "" {
		return nil, lookup.ErrNotFound
	}
	cacheKey := clean + ":" + sentence

	c.mu.Lock()
	cached, ok := c.cache[cacheKey]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	content, err := c.complete(ctx, []Message{
		{Role: "system", Content: "You help Chinese-speaking readers learn English vocabulary from the novels they read."},
		{Role: "user", Content: definitionPrompt(clean, sentence)},
	})
	if err != nil {
		return nil, err
	}

	match := jsonObject.FindString(content)
	if match == "" {
		return nil, fmt.Errorf("could not parse JSON from response: %q", content)
	}
	var parsed wordDefinition
	if err := json.Unmarshal([]byte(match), &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode definition: %w", err)
	}
	if strings.TrimSpace(parsed.English) == "" {
		return nil, lookup.ErrNotFound
	}

	def := &lookup.Definition{
		English:      strings.TrimSpace(parsed.English),
		Translation:  strings.TrimSpace(parsed.Translation),
		PartOfSpeech: strings.TrimSpace(parsed.PartOfSpeech),
	}
	c.mu.Lock()
	c.cache[cacheKey] = def
	c.mu.Unlock()
	return def, nil
}

func (c *ChatGPT) complete(ctx context.Context, messages []Message) (string, error) {
	request := ChatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewBuffer(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var response ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if response.Error != nil {
		return "", fmt.Errorf("API error: %s", response.Error.Message)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}
