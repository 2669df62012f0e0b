package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/lookup"
	"github.com/James99309/stargirl-reader/internal/review"
	"github.com/James99309/stargirl-reader/internal/speech"
	"github.com/James99309/stargirl-reader/pkg/models"
)

const (
	loginChapter = "Login"
	noQuizScore  = "No quiz"
)

// ChapterResult describes what finishing a chapter paid out
type ChapterResult struct {
	ChapterID   int  `json:"chapter_id"`
	FirstTime   bool `json:"first_time"`
	XPAwarded   int  `json:"xp_awarded"`
	QuizBonus   int  `json:"quiz_bonus"`
	Streak      int  `json:"streak"`
	Hearts      int  `json:"hearts"`
	NextChapter int  `json:"next_chapter"`
}

// LookupWord resolves a word without storing anything
func (a *App) LookupWord(ctx context.Context, word string, wctx *models.WordContext) (*lookup.Result, error) {
	if a.resolver == nil {
		return nil, ErrUnavailable
	}
	return a.resolver.Resolve(ctx, word, wctx)
}

// LearnWord resolves a tapped word and stores it. With save set the word goes
// to the saved list, otherwise it counts as learned and pays the learning XP once.
func (a *App) LearnWord(ctx context.Context, word string, wctx *models.WordContext, save bool) (models.VocabularyRecord, error) {
	res, err := a.LookupWord(ctx, word, wctx)
	if err != nil {
		return models.VocabularyRecord{}, err
	}

	rec := res.Record
	rec.IsSaved = save
	a.Vocabulary.InitializeWord(rec)
	if wctx != nil {
		a.Vocabulary.AddContext(rec.Word, models.WordContext{
			Sentence:  strings.TrimSpace(wctx.Sentence),
			ChapterID: wctx.ChapterID,
		})
	}

	if save {
		a.Vocabulary.SaveWord(rec.Word)
	} else if a.Economy.AddLearnedWord(rec.Word) {
		a.Economy.AddXP(economy.XPWordLearned)
	}

	stored, _ := a.Vocabulary.Get(rec.Word)
	return stored, nil
}

// AddWord stores a fully specified record without a lookup
func (a *App) AddWord(rec models.VocabularyRecord) (models.VocabularyRecord, bool) {
	created := a.Vocabulary.InitializeWord(rec)
	stored, _ := a.Vocabulary.Get(rec.Word)
	return stored, created
}

// CompleteChapter finishes a chapter: the completion XP on the first finish,
// the quiz bonus, one heart back, the streak and the reading position.
func (a *App) CompleteChapter(chapterID, quizCorrect, quizTotal int) ChapterResult {
	res := ChapterResult{ChapterID: chapterID, NextChapter: chapterID + 1}

	res.FirstTime = a.Economy.CompleteChapter(chapterID)
	if res.FirstTime {
		a.Economy.AddXP(economy.XPChapterComplete)
		res.XPAwarded = economy.XPChapterComplete
	}
	res.QuizBonus = a.Economy.RecordQuizResult(quizCorrect, quizTotal)
	res.XPAwarded += res.QuizBonus
	res.Streak = a.Economy.UpdateStreak()
	a.Economy.SetCurrentPosition(res.NextChapter, 0)

	p := a.Economy.Snapshot()
	res.Hearts = p.Hearts

	score := noQuizScore
	if quizTotal > 0 {
		score = fmt.Sprintf("%d/%d", quizCorrect, quizTotal)
	}
	a.report(p, fmt.Sprintf("Chapter %d", chapterID), score, res.XPAwarded)

	a.logger.Info("Chapter completed",
		zap.Int("chapter", chapterID),
		zap.Bool("first_time", res.FirstTime),
		zap.Int("xp", res.XPAwarded))
	return res
}

func (a *App) report(p models.Progress, chapter, score string, xp int) {
	if a.reporter == nil || p.Username == "" {
		return
	}
	a.reporter.Report(models.ProgressReport{
		Username:      p.Username,
		Chapter:       chapter,
		Score:         score,
		XP:            xp,
		IsSuperMember: p.IsSuperMember,
	})
}

// Login sets the username and merges the reader's leaderboard entry if one exists.
// A leaderboard outage does not block the login.
func (a *App) Login(ctx context.Context, username string) (models.Progress, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Progress{}, errors.New("username is required")
	}
	a.Economy.SetUsername(username)

	if a.leaderboard != nil {
		entry, err := a.leaderboard.FindUser(ctx, username)
		switch {
		case err != nil:
			a.logger.Warn("Failed to look up leaderboard entry", zap.String("username", username), zap.Error(err))
		case entry != nil:
			a.Economy.RestoreFromServer(*entry)
		}
	}
	a.Economy.CheckSuperMemberStatus()

	p := a.Economy.Snapshot()
	a.report(p, loginChapter, "-", 0)
	return p, nil
}

// Logout clears the progress state. The vocabulary is kept.
func (a *App) Logout() {
	a.Economy.Reset()
	a.mu.Lock()
	a.sessions = make(map[string]*review.Session)
	a.mu.Unlock()
}

// PurchaseSuperMember buys membership and syncs the new status
func (a *App) PurchaseSuperMember() bool {
	if !a.Economy.PurchaseSuperMember() {
		return false
	}
	p := a.Economy.Snapshot()
	if a.reporter != nil && p.Username != "" {
		a.reporter.UpdateMemberStatus(p.Username, true)
	}
	return true
}

// UpdateLocation syncs the reader's self-reported location
func (a *App) UpdateLocation(location string) error {
	if a.reporter == nil {
		return ErrUnavailable
	}
	username := a.Economy.Snapshot().Username
	if username == "" {
		return ErrLoginRequired
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return errors.New("location is required")
	}
	a.reporter.UpdateLocation(username, location)
	return nil
}

// RedeemCode redeems a reward code and credits its XP
func (a *App) RedeemCode(ctx context.Context, code string) (int, error) {
	if a.leaderboard == nil {
		return 0, ErrUnavailable
	}
	p := a.Economy.Snapshot()
	if p.Username == "" {
		return 0, ErrLoginRequired
	}
	res, err := a.leaderboard.RedeemCode(ctx, p.Username, strings.TrimSpace(code))
	if err != nil {
		return 0, err
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "code rejected"
		}
		return 0, errors.New(msg)
	}
	a.Economy.AddXP(res.XP)
	return res.XP, nil
}

// Leaderboard returns the ranked entries
func (a *App) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	if a.leaderboard == nil {
		return nil, ErrUnavailable
	}
	return a.leaderboard.Fetch(ctx)
}

// Speak synthesizes text, superseding any utterance in progress
func (a *App) Speak(ctx context.Context, text string) (*speech.Audio, error) {
	if a.speaker == nil {
		return nil, ErrUnavailable
	}
	return a.speaker.Speak(ctx, text)
}

// StopSpeaking cancels the current utterance
func (a *App) StopSpeaking() {
	if a.speaker != nil {
		a.speaker.Stop()
	}
}

// StartReview opens a review session over the words due now. Finished
// sessions are dropped.
func (a *App) StartReview() (*review.Session, error) {
	if !a.Economy.CanPlay() {
		return nil, review.ErrOutOfHearts
	}
	sess := a.Review.NewSession(a.Economy)

	a.mu.Lock()
	defer a.mu.Unlock()
	for id, s := range a.sessions {
		if st := s.State(); st != review.StateInProgress {
			delete(a.sessions, id)
		}
	}
	if sess.State() == review.StateInProgress {
		a.sessions[sess.ID] = sess
	}
	return sess, nil
}

// ReviewSession returns an open session
func (a *App) ReviewSession(id string) (*review.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	sess, ok := a.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// AnswerReview answers the current question of a session
func (a *App) AnswerReview(id string, answer review.Answer) (*review.Result, error) {
	sess, err := a.ReviewSession(id)
	if err != nil {
		return nil, err
	}
	return sess.Answer(answer)
}

// EndReview closes a session and returns its summary
func (a *App) EndReview(id string) (review.Summary, error) {
	a.mu.Lock()
	sess, ok := a.sessions[id]
	delete(a.sessions, id)
	a.mu.Unlock()
	if !ok {
		return review.Summary{}, ErrSessionNotFound
	}
	return sess.Summary(), nil
}
