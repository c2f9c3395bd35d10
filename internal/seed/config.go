// Package seed generates synthetic athlete documents, submits them to a
// running athletix service and checks that they can be read back.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Athletes int           // Number of athletes to generate
	Days     int           // Biometric records per athlete
	Workers  int           // Concurrent submitters
	Timeout  time.Duration // HTTP request timeout
	Settle   time.Duration // How long to wait for the service to persist submissions
	Seed     uint64        // Generator seed; equal seeds give equal documents
	Verbose  bool          // Log every request
}

// Stats holds run statistics.
type Stats struct {
	Athletes    int
	Submissions int
	Accepted    int
	Duplicate   int
	Failed      int
	Verified    int
	Unverified  int
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
}

// Submission is one POST the runner will perform.
type Submission struct {
	AthleteID string
	Path      string // genetics or biometrics
	Key       string // Idempotency-Key header
	Body      []byte
}

// Ack mirrors the service's response to a submission.
type Ack struct {
	ID        string `json:"id"`
	Duplicate bool   `json:"duplicate"`
}
