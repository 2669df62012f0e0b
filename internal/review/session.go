package review

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// XPPerCorrectAnswer is credited for each correct review answer
const XPPerCorrectAnswer = 10

// Grade thresholds in percent
const (
	gradePerfect = 100
	gradeGood    = 70
)

var (
	// ErrNoWordsDue is reported by sessions started with nothing to review
	ErrNoWordsDue = errors.New("no words due for review")
	// ErrSessionFinished is returned when answering a completed session
	ErrSessionFinished = errors.New("review session already finished")
	// ErrOutOfHearts is returned when the reader has no hearts left to play with
	ErrOutOfHearts = errors.New("no hearts left")
	// ErrQuestionFailed is reported when a question could not be generated
	ErrQuestionFailed = errors.New("could not generate question")
)

// State of a review session
type State string

const (
	StateNoWordsDue State = "no_words_due"
	StateInProgress State = "in_progress"
	StateComplete   State = "complete"
	StateFailed     State = "failed"
)

// Rewarder is the economy side of answering questions
type Rewarder interface {
	CanPlay() bool
	AddXP(amount int)
	LoseHeart() bool
}

// Result is the outcome of one answer
type Result struct {
	Correct       bool      `json:"correct"`
	CorrectAnswer string    `json:"correct_answer"`
	XPAwarded     int       `json:"xp_awarded"`
	HeartLost     bool      `json:"heart_lost"`
	Skipped       bool      `json:"skipped,omitempty"`
	Finished      bool      `json:"finished"`
	Next          *Question `json:"next,omitempty"`
}

// Summary describes a session's score
type Summary struct {
	State    State   `json:"state"`
	Position int     `json:"position"`
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
	Grade    string  `json:"grade"`
}

// Session walks through a fixed snapshot of due words
type Session struct {
	ID string

	scheduler *Scheduler
	rewarder  Rewarder
	logger    *zap.Logger

	mu       sync.Mutex
	words    []models.VocabularyRecord
	allWords []models.VocabularyRecord
	index    int
	current  *Question
	correct  int
	state    State
}

// NewSession snapshots the due words and prepares the first question.
// The word list does not change while the session runs.
func (s *Scheduler) NewSession(rewarder Rewarder) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		scheduler: s,
		rewarder:  rewarder,
		logger:    s.logger,
		words:     s.WordsForReview(),
		allWords:  s.store.All(),
		state:     StateInProgress,
	}
	if len(sess.words) == 0 {
		sess.state = StateNoWordsDue
		return sess
	}
	sess.prepare()
	return sess
}

// prepare generates the question at the current index; callers hold mu or own the session
func (sess *Session) prepare() {
	q, err := sess.scheduler.GenerateQuestion(sess.words[sess.index], sess.allWords)
	if err != nil {
		sess.logger.Error("Failed to generate review question",
			zap.String("word", sess.words[sess.index].Word),
			zap.Error(err))
		sess.state = StateFailed
		sess.current = nil
		return
	}
	sess.current = q
}

// State returns the session state
func (sess *Session) State() State {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state
}

// Current returns the question awaiting an answer
func (sess *Session) Current() (*Question, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.currentLocked()
}

func (sess *Session) currentLocked() (*Question, error) {
	switch sess.state {
	case StateNoWordsDue:
		return nil, ErrNoWordsDue
	case StateComplete:
		return nil, ErrSessionFinished
	case StateFailed:
		return nil, ErrQuestionFailed
	}
	return sess.current, nil
}

// Answer checks the response, updates the word's mastery, settles XP or hearts and advances
func (sess *Session) Answer(a Answer) (*Result, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	q, err := sess.currentLocked()
	if err != nil {
		return nil, err
	}
	if !sess.rewarder.CanPlay() {
		return nil, ErrOutOfHearts
	}

	correct := q.Check(a)
	res := &Result{Correct: correct, CorrectAnswer: q.CorrectAnswer()}
	// a word deleted mid-session is skipped without XP or heart changes
	if !sess.scheduler.store.RecordAnswer(q.Word, correct) {
		res.Skipped = true
	} else if correct {
		sess.correct++
		sess.rewarder.AddXP(XPPerCorrectAnswer)
		res.XPAwarded = XPPerCorrectAnswer
	} else {
		res.HeartLost = sess.rewarder.LoseHeart()
	}

	sess.index++
	if sess.index >= len(sess.words) {
		sess.state = StateComplete
		sess.current = nil
		res.Finished = true
		return res, nil
	}
	sess.prepare()
	res.Next = sess.current
	if sess.state == StateFailed {
		res.Finished = true
	}
	return res, nil
}

// Summary reports the score so far
func (sess *Session) Summary() Summary {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sum := Summary{
		State:    sess.state,
		Position: sess.index,
		Correct:  sess.correct,
		Total:    len(sess.words),
	}
	if sum.Total > 0 {
		sum.Percent = float64(sum.Correct) / float64(sum.Total) * 100
	}
	switch {
	case sum.Total == 0:
		sum.Grade = "all caught up"
	case sum.Percent >= gradePerfect:
		sum.Grade = "perfect"
	case sum.Percent >= gradeGood:
		sum.Grade = "great job"
	default:
		sum.Grade = "keep practicing"
	}
	return sum
}
