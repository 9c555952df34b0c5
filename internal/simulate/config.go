// Package simulate drives a running shelf server with generated reading
// histories and checks the awarded badges against a local evaluation.
package simulate

import (
	"runtime"
	"time"
)

// Default configuration values.
const (
	DefaultReaders     = 50
	DefaultDays        = 14
	DefaultTopN        = 10
	DefaultTimeout     = 30 * time.Second
	DefaultSettleAfter = 2 * time.Minute
	readProbability    = 0.8
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	Readers int           // Number of simulated users
	Days    int           // Length of each reading history in days
	TopN    int           // Leaderboard rows to fetch
	Workers int           // Concurrent submitters; each owns whole readers
	Timeout time.Duration // HTTP request timeout
	// SettleAfter bounds how long to wait for the server to apply everything.
	SettleAfter time.Duration
	Seed        uint64 // Generator seed; equal seeds give equal histories
	OutputFile  string // Optional JSON dump of generated activities
	Verbose     bool
	// End is the last simulated day. Zero means today in UTC.
	End time.Time
}

// withDefaults fills zero fields.
func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:9080"
	}
	if c.Readers <= 0 {
		c.Readers = DefaultReaders
	}
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	if c.TopN <= 0 {
		c.TopN = DefaultTopN
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU() * 2
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.SettleAfter <= 0 {
		c.SettleAfter = DefaultSettleAfter
	}
	if c.End.IsZero() {
		c.End = time.Now().UTC()
	}
	return c
}

// Stats holds run statistics.
type Stats struct {
	Readers            int
	ActivitiesSent     int
	Accepted           int
	Duplicates         int
	Failed             int
	Retries            int
	Verified           int
	Mismatched         int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
