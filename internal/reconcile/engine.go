// Package reconcile joins normalized requirements, observed client sessions and the
// user directory to find accounts running a client version other than the recommended one.
package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/jonathan/version-auditor/internal/clientid"
	"github.com/jonathan/version-auditor/internal/types"
)

// Engine computes mismatch records. It holds no state between calls; the same
// inputs always produce the same output in the same order.
type Engine struct {
	log *zerolog.Logger
}

// NewEngine creates an Engine. A nil logger disables logging.
func NewEngine(log *zerolog.Logger) *Engine {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Engine{log: log}
}

// BuildSessions derives the join key and version of each raw session row.
func BuildSessions(rows []types.SessionRow) []types.SessionRecord {
	out := make([]types.SessionRecord, len(rows))
	for i, row := range rows {
		rec := types.SessionRecord{
			UserName:         row.UserName,
			ClientIdentifier: row.ClientIdentifier,
			Version:          clientid.ParseVersion(row.ClientIdentifier),
		}
		if row.ClientIdentifier != nil {
			rec.JoinKey = clientid.JoinKey(*row.ClientIdentifier)
		}
		out[i] = rec
	}
	return out
}

// Dedupe keeps the first session for each distinct client identifier. All sessions
// with an absent identifier count as one distinct value.
func Dedupe(sessions []types.SessionRecord) []types.SessionRecord {
	seen := make(map[string]struct{}, len(sessions))
	seenAbsent := false
	out := make([]types.SessionRecord, 0, len(sessions))
	for _, s := range sessions {
		if s.ClientIdentifier == nil {
			if seenAbsent {
				continue
			}
			seenAbsent = true
			out = append(out, s)
			continue
		}
		if _, ok := seen[*s.ClientIdentifier]; ok {
			continue
		}
		seen[*s.ClientIdentifier] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Reconcile returns one MismatchRecord for every (requirement, session) pair that
// shares a join key and whose observed version differs from the recommended one.
//
// Sessions are deduplicated by client identifier first. The join is a full inner
// join: requirement order is the outer order and session order the inner order.
// Contact info is attached by a left join on user name: a user listed more than once
// in the directory yields one record per entry, and unmatched records keep a nil Email.
func (e *Engine) Reconcile(reqs []types.RequirementRow, sessions []types.SessionRecord, users []types.UserRecord) []types.MismatchRecord {
	out := []types.MismatchRecord{}
	if len(reqs) == 0 || len(sessions) == 0 {
		e.log.Debug().
			Int("requirements", len(reqs)).
			Int("sessions", len(sessions)).
			Msg("nothing to reconcile")
		return out
	}

	unique := Dedupe(sessions)
	byKey := indexSessions(unique)
	emails := indexUsers(users)

	joined := 0
	for _, req := range reqs {
		for _, s := range byKey[req.JoinKey] {
			joined++
			observed := s.Version.String()
			if observed == req.RecommendedVersion {
				continue
			}
			rec := types.MismatchRecord{
				JoinKey:            req.JoinKey,
				ClientIdentifier:   s.Identifier(),
				UserName:           s.UserName,
				ObservedVersion:    observed,
				RecommendedVersion: req.RecommendedVersion,
			}
			matches, ok := emails[s.UserName]
			if !ok {
				out = append(out, rec)
				continue
			}
			for _, email := range matches {
				withContact := rec
				withContact.Email = copyString(email)
				out = append(out, withContact)
			}
		}
	}

	e.log.Debug().
		Int("requirements", len(reqs)).
		Int("sessions", len(sessions)).
		Int("unique_sessions", len(unique)).
		Int("joined", joined).
		Int("mismatches", len(out)).
		Msg("reconciled")

	return out
}

// indexSessions groups sessions by join key, preserving input order within each key.
// Sessions without a client identifier have no join key and never match.
func indexSessions(sessions []types.SessionRecord) map[string][]types.SessionRecord {
	idx := make(map[string][]types.SessionRecord)
	for _, s := range sessions {
		if s.ClientIdentifier == nil {
			continue
		}
		idx[s.JoinKey] = append(idx[s.JoinKey], s)
	}
	return idx
}

// indexUsers maps user name to the email of every directory entry with that name,
// in directory order.
func indexUsers(users []types.UserRecord) map[string][]*string {
	idx := make(map[string][]*string, len(users))
	for _, u := range users {
		idx[u.UserName] = append(idx[u.UserName], u.Email)
	}
	return idx
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
