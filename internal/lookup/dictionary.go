package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDictionaryURL is the free dictionary API
const DefaultDictionaryURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

type dictionaryEntry struct {
	Word      string `json:"word"`
	Phonetic  string `json:"phonetic"`
	Phonetics []struct {
		Text  string `json:"text"`
		Audio string `json:"audio"`
	} `json:"phonetics"`
	Meanings []struct {
		PartOfSpeech string `json:"partOfSpeech"`
		Definitions  []struct {
			Definition string `json:"definition"`
			Example    string `json:"example"`
		} `json:"definitions"`
	} `json:"meanings"`
}

// DictionaryClient serves both definitions and pronunciations from the
// dictionary API. Successful responses are cached per cleaned word.
type DictionaryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger

	mu    sync.Mutex
	cache map[string]*dictionaryEntry
}

// NewDictionaryClient creates a client for baseURL, or the public API when empty
func NewDictionaryClient(baseURL string, logger *zap.Logger) *DictionaryClient {
	if baseURL == "" {
		baseURL = DefaultDictionaryURL
	}
	return &DictionaryClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		cache:      make(map[string]*dictionaryEntry),
	}
}

func (c *DictionaryClient) entry(ctx context.Context, word string) (*dictionaryEntry, error) {
	clean := CleanWord(word)
	if clean == "" {
		return nil, ErrNotFound
	}

	c.mu.Lock()
	cached, ok := c.cache[clean]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(clean), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dictionary API returned status %d", resp.StatusCode)
	}

	var entries []dictionaryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}

	e := &entries[0]
	c.mu.Lock()
	c.cache[clean] = e
	c.mu.Unlock()
	return e, nil
}

// LookupDefinition returns the first definition of the first meaning.
// The dictionary has no translations, so the context sentence is ignored.
func (c *DictionaryClient) LookupDefinition(ctx context.Context, word, _ string) (*Definition, error) {
	e, err := c.entry(ctx, word)
	if err != nil {
		return nil, err
	}
	if len(e.Meanings) == 0 || len(e.Meanings[0].Definitions) == 0 {
		return nil, ErrNotFound
	}
	meaning := e.Meanings[0]
	return &Definition{
		English:      meaning.Definitions[0].Definition,
		PartOfSpeech: meaning.PartOfSpeech,
	}, nil
}

// LookupAudio prefers a US recording, then any recording
func (c *DictionaryClient) LookupAudio(ctx context.Context, word string) (*Pronunciation, error) {
	e, err := c.entry(ctx, word)
	if err != nil {
		return nil, err
	}

	p := &Pronunciation{Phonetic: e.Phonetic}
	for _, ph := range e.Phonetics {
		if ph.Audio != "" && strings.Contains(ph.Audio, "-us") {
			p.AudioRef = ph.Audio
			break
		}
	}
	if p.AudioRef == "" {
		for _, ph := range e.Phonetics {
			if ph.Audio != "" {
				p.AudioRef = ph.Audio
				break
			}
		}
	}
	if p.Phonetic == "" {
		for _, ph := range e.Phonetics {
			if ph.Text != "" {
				p.Phonetic = ph.Text
				break
			}
		}
	}
	if p.AudioRef == "" && p.Phonetic == "" {
		return nil, ErrNotFound
	}
	return p, nil
}
