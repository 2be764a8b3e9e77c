package jwtware

// State is the position of a request in the guard's evaluation
type State int

const (
	NoCandidate State = iota
	CandidatePresent
	Verified
	Rejected
	AnonymousIssued
)

func (s State) String() string {
	switch s {
	case NoCandidate:
		return "no_candidate"
	case CandidatePresent:
		return "candidate_present"
	case Verified:
		return "verified"
	case Rejected:
		return "rejected"
	case AnonymousIssued:
		return "anonymous_issued"
	default:
		return "unknown"
	}
}
