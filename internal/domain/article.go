package domain

import "time"

// SourceKind tells how a candidate URL was discovered.
type SourceKind string

const (
	SourceFeed SourceKind = "feed"
	SourcePage SourceKind = "page"
)

// CandidateURL is a raw article link collected during a single run.
type CandidateURL struct {
	URL         string
	Kind        SourceKind
	Origin      string
	PublishedAt time.Time
}

// FetchedArticle is the fetched, canonicalized and extracted form of a candidate.
type FetchedArticle struct {
	CanonicalURL string
	Title        string
	BodyText     string
	ImageURL     string
}

// RetentionWindow is how long a stored record stays before the external sweeper may remove it.
const RetentionWindow = 45 * 24 * time.Hour

// NewsRecord is the persisted result of an accepted article.
type NewsRecord struct {
	ID             string
	Title          string
	URL            string
	Source         string
	ImageURL       string
	SummaryBullets []string
	Categories     []Category
	Relevance      float64
	PublishedAt    time.Time
	CreatedAt      time.Time
	ExpireAt       time.Time
}

// Outcome enumerates the terminal states of one item pipeline.
type Outcome string

const (
	OutcomeAccepted       Outcome = "accepted"
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomeEmpty          Outcome = "empty"
	OutcomeIrrelevant     Outcome = "irrelevant"
	OutcomeDuplicate      Outcome = "duplicate"
	OutcomeClaimed        Outcome = "claimed"
	OutcomeStoreFailed    Outcome = "store_failed"
	OutcomeServiceFailure Outcome = "service_failure"
	OutcomeSchemaInvalid  Outcome = "schema_invalid"
	OutcomeLowScore       Outcome = "low_score"
	OutcomePersistFailed  Outcome = "persist_failed"
	OutcomePanic          Outcome = "panic"
)

// RunReport summarizes a finished pipeline run.
type RunReport struct {
	RunID      string
	Candidates int
	Outcomes   map[Outcome]int
	Accepted   []NewsRecord
	StartedAt  time.Time
	FinishedAt time.Time
}
