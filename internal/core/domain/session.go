package domain

import "time"

// QueryStage is a state in the per-question pipeline.
type QueryStage string

// Pipeline stages in the order they can be visited.
const (
	StageReceived   QueryStage = "received"
	StageCacheCheck QueryStage = "cache_check"
	StageCacheHit   QueryStage = "cache_hit"
	StageCacheMiss  QueryStage = "cache_miss"
	StageRetrieve   QueryStage = "retrieve"
	StageAssemble   QueryStage = "assemble"
	StageGenerate   QueryStage = "generate"
	StageCacheWrite QueryStage = "cache_write"
	StageDone       QueryStage = "done"
)

// Turn is one question and its answer within a session.
type Turn struct {
	Question string
	Answer   Answer
	AskedAt  time.Time

	// Stages lists the pipeline states the question went through.
	Stages []QueryStage
}

// Session is conversation state owned by the caller.
// The orchestrator receives a session and returns an updated copy.
type Session struct {
	ID        string
	StartedAt time.Time
	History   []Turn
}

// NewSession starts an empty session.
func NewSession(id string, now time.Time) Session {
	return Session{ID: id, StartedAt: now}
}

// WithTurn returns a copy of the session with t appended.
// The receiver's history is left untouched.
func (s Session) WithTurn(t Turn) Session {
	history := make([]Turn, len(s.History), len(s.History)+1)
	copy(history, s.History)
	s.History = append(history, t)
	return s
}

// LastTurn returns the most recent turn, if any.
func (s Session) LastTurn() (Turn, bool) {
	if len(s.History) == 0 {
		return Turn{}, false
	}
	return s.History[len(s.History)-1], true
}

// Len returns the number of turns.
func (s Session) Len() int {
	return len(s.History)
}
