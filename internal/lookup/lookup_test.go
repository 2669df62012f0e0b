package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

const lucidResponse = `[{
	"word": "lucid",
	"phonetics": [
		{"text": "/ˈluː.sɪd/", "audio": "https://example.test/lucid-uk.mp3"},
		{"text": "/ˈlusɪd/", "audio": "https://example.test/lucid-us.mp3"}
	],
	"meanings": [
		{"partOfSpeech": "adjective", "definitions": [
			{"definition": "Clear; easily understood.", "example": "a lucid explanation"},
			{"definition": "Bright, shining."}
		]}
	]
}]`

func newDictionaryServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch strings.TrimPrefix(r.URL.Path, "/") {
		case "lucid":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(lucidResponse))
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"title":"No Definitions Found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCleanWord(t *testing.T) {
	assert.Equal(t, "lucid", CleanWord(" Lucid, "))
	assert.Equal(t, "well-known", CleanWord("\"well-known!\""))
	assert.Equal(t, "", CleanWord("..."))
}

func TestDefinitionGloss(t *testing.T) {
	assert.Equal(t, "clear (清楚的)", Definition{English: "clear", Translation: "清楚的"}.Gloss())
	assert.Equal(t, "clear", Definition{English: "clear"}.Gloss())
	assert.Equal(t, "清楚的", Definition{Translation: "清楚的"}.Gloss())
}

func TestDictionaryLookupDefinition(t *testing.T) {
	var hits int32
	srv := newDictionaryServer(t, &hits)
	c := NewDictionaryClient(srv.URL, zap.NewNop())

	def, err := c.LookupDefinition(context.Background(), "Lucid.", "")
	require.NoError(t, err)
	assert.Equal(t, "Clear; easily understood.", def.English)
	assert.Equal(t, "adjective", def.PartOfSpeech)

	// cached per cleaned word
	_, err = c.LookupDefinition(context.Background(), "lucid", "")
	require.NoError(t, err)
	_, err = c.LookupAudio(context.Background(), "LUCID")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestDictionaryLookupAudioPrefersUS(t *testing.T) {
	var hits int32
	srv := newDictionaryServer(t, &hits)
	c := NewDictionaryClient(srv.URL, zap.NewNop())

	p, err := c.LookupAudio(context.Background(), "lucid")
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/lucid-us.mp3", p.AudioRef)
	assert.Equal(t, "/ˈluː.sɪd/", p.Phonetic)
}

func TestDictionaryNotFound(t *testing.T) {
	var hits int32
	srv := newDictionaryServer(t, &hits)
	c := NewDictionaryClient(srv.URL, zap.NewNop())

	_, err := c.LookupDefinition(context.Background(), "zzxq", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.LookupDefinition(context.Background(), "broken", "")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	// failures are not cached
	_, _ = c.LookupDefinition(context.Background(), "zzxq", "")
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

type stubDefinitions struct {
	def *Definition
	err error
}

func (s stubDefinitions) LookupDefinition(context.Context, string, string) (*Definition, error) {
	return s.def, s.err
}

type stubAudio struct {
	p   *Pronunciation
	err error
}

func (s stubAudio) LookupAudio(context.Context, string) (*Pronunciation, error) {
	return s.p, s.err
}

func TestChain(t *testing.T) {
	chain := Chain{
		stubDefinitions{err: errors.New("api key missing")},
		nil,
		stubDefinitions{def: &Definition{English: "clear"}},
	}
	def, err := chain.LookupDefinition(context.Background(), "lucid", "")
	require.NoError(t, err)
	assert.Equal(t, "clear", def.English)

	_, err = Chain{}.LookupDefinition(context.Background(), "lucid", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveBuildsRecord(t *testing.T) {
	r := NewResolver(
		stubDefinitions{def: &Definition{English: "clear", Translation: "清楚的", PartOfSpeech: "adjective"}},
		stubAudio{p: &Pronunciation{AudioRef: "https://example.test/lucid-us.mp3", Phonetic: "/ˈlusɪd/"}},
		zap.NewNop(),
	)

	res, err := r.Resolve(context.Background(), "Lucid,", &models.WordContext{Sentence: "Her prose was lucid.", ChapterID: 3})
	require.NoError(t, err)
	rec := res.Record
	assert.Equal(t, "lucid", rec.Word)
	assert.Equal(t, "clear (清楚的)", rec.Definition)
	assert.Equal(t, "adjective", rec.PartOfSpeech)
	assert.Equal(t, "https://example.test/lucid-us.mp3", rec.PronunciationRef)
	assert.Equal(t, "/ˈlusɪd/", rec.Phonetic)
	assert.Equal(t, []models.WordContext{{Sentence: "Her prose was lucid.", ChapterID: 3}}, rec.Contexts)
	assert.True(t, rec.IsNew)
	assert.Zero(t, rec.TimesCorrect)
}

func TestResolveWithoutAudio(t *testing.T) {
	r := NewResolver(
		stubDefinitions{def: &Definition{English: "clear"}},
		stubAudio{err: errors.New("timeout")},
		zap.NewNop(),
	)
	res, err := r.Resolve(context.Background(), "lucid", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Record.PronunciationRef)
	assert.Nil(t, res.Record.Contexts)
}

func TestResolveFailedDefinition(t *testing.T) {
	r := NewResolver(stubDefinitions{err: errors.New("connection refused")}, nil, zap.NewNop())
	res, err := r.Resolve(context.Background(), "lucid", nil)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNotFound)

	r = NewResolver(stubDefinitions{def: &Definition{}}, nil, zap.NewNop())
	_, err = r.Resolve(context.Background(), "lucid", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

type blockingDefinitions struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingDefinitions) LookupDefinition(_ context.Context, word, _ string) (*Definition, error) {
	if word == "slow" {
		close(b.started)
		<-b.release
	}
	return &Definition{English: "meaning of " + word}, nil
}

func TestResolveDiscardsSupersededResult(t *testing.T) {
	defs := &blockingDefinitions{started: make(chan struct{}), release: make(chan struct{})}
	r := NewResolver(defs, nil, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		_, err := r.Resolve(context.Background(), "slow", nil)
		done <- err
	}()
	<-defs.started

	res, err := r.Resolve(context.Background(), "fast", nil)
	require.NoError(t, err)
	assert.Equal(t, "meaning of fast", res.Record.Definition)

	close(defs.release)
	assert.ErrorIs(t, <-done, ErrStale)
}

func TestTracker(t *testing.T) {
	var tr Tracker
	first := tr.Begin()
	assert.True(t, tr.IsCurrent(first))
	second := tr.Begin()
	assert.False(t, tr.IsCurrent(first))
	assert.True(t, tr.IsCurrent(second))
}
