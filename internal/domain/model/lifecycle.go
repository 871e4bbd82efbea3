package model

// JobStatus is the lifecycle state of a Job.
type JobStatus string

const (
	JobStatusDraft              JobStatus = "draft"
	JobStatusPendingQuotes      JobStatus = "pending_quotes"
	JobStatusQuotesReceived     JobStatus = "quotes_received"
	JobStatusContractorSelected JobStatus = "contractor_selected"
	JobStatusInProgress         JobStatus = "in_progress"
	JobStatusCompleted          JobStatus = "completed"
	JobStatusReviewed           JobStatus = "reviewed"
	JobStatusCancelled          JobStatus = "cancelled"
)

// Aliases used by the direct-accept flow.
const (
	JobStatusOpen     = JobStatusPendingQuotes
	JobStatusAssigned = JobStatusContractorSelected
)

// transitions lists, for each state, the states it may move to.
var transitions = map[JobStatus][]JobStatus{
	JobStatusDraft:              {JobStatusPendingQuotes, JobStatusCancelled},
	JobStatusPendingQuotes:      {JobStatusQuotesReceived, JobStatusContractorSelected, JobStatusCancelled},
	JobStatusQuotesReceived:     {JobStatusContractorSelected, JobStatusCancelled},
	JobStatusContractorSelected: {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress:         {JobStatusCompleted, JobStatusCancelled},
	JobStatusCompleted:          {JobStatusReviewed},
	JobStatusReviewed:           nil,
	JobStatusCancelled:          nil,
}

// JobStatuses lists every persisted state in lifecycle order. The jobs.status
// CHECK constraint allows exactly this set.
func JobStatuses() []JobStatus {
	return []JobStatus{
		JobStatusDraft, JobStatusPendingQuotes, JobStatusQuotesReceived, JobStatusContractorSelected,
		JobStatusInProgress, JobStatusCompleted, JobStatusReviewed, JobStatusCancelled,
	}
}

// OpenStatuses are the states in which a job accepts quotes and can be claimed.
func OpenStatuses() []JobStatus {
	return []JobStatus{JobStatusPendingQuotes, JobStatusQuotesReceived}
}

func (s JobStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// IsOpen reports whether a job in this state is still available to contractors.
func (s JobStatus) IsOpen() bool {
	return s == JobStatusPendingQuotes || s == JobStatusQuotesReceived
}

// IsTerminal reports whether no manual transition (including cancel) is allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusReviewed || s == JobStatusCancelled
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to JobStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Predecessors returns every state from which `to` is reachable in one step.
// Storage layers use it to build conditional updates.
func Predecessors(to JobStatus) []JobStatus {
	var out []JobStatus
	for _, from := range []JobStatus{
		JobStatusDraft, JobStatusPendingQuotes, JobStatusQuotesReceived, JobStatusContractorSelected,
		JobStatusInProgress, JobStatusCompleted, JobStatusReviewed, JobStatusCancelled,
	} {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// JobStatusStrings converts statuses for storage drivers.
func JobStatusStrings(ss []JobStatus) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
