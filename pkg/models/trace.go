package models

import "time"

// TraceResponse is the result of tracing one click on one interferogram
type TraceResponse struct {
	ImageURL          string           `json:"image_url"`
	Timestamp         time.Time        `json:"timestamp"`
	ProcessingTimeSec float64          `json:"processing_time_sec"`
	Scorer            string           `json:"scorer"`
	Seeds             []SeedSummary    `json:"seeds"`
	Profile           *ProfileResponse `json:"profile,omitempty"`
	ProfileError      string           `json:"profile_error,omitempty"`
	OverlayPNG        []byte           `json:"overlay_png"`           // base64 in JSON
	ProfilePNG        []byte           `json:"profile_png,omitempty"` // base64 in JSON
	Warnings          []Warning        `json:"warnings,omitempty"`
}

// SeedSummary describes the path traced from one seed
type SeedSummary struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Length  int     `json:"length"`
	Aborted bool    `json:"aborted"`
	Error   string  `json:"error,omitempty"`
}

// ProfileResponse is the straightened profile
type ProfileResponse struct {
	Angle   float64         `json:"angle"`
	Samples []ProfileSample `json:"samples"`
	Text    string          `json:"text"`
}

// ProfileSample is one (x, height) pair of the profile
type ProfileSample struct {
	X      float64 `json:"x"`
	Height float64 `json:"height"`
}

// Warning is an advisory pre-trace finding
type Warning struct {
	Type    string  `json:"type"`
	Message string  `json:"message"`
	Value   float64 `json:"value,omitempty"`
}

// MetricsResponse reports service counters
type MetricsResponse struct {
	TotalTraces       int64   `json:"total_traces"`
	SuccessfulTraces  int64   `json:"successful_traces"`
	FailedTraces      int64   `json:"failed_traces"`
	AbortedSeeds      int64   `json:"aborted_seeds"`
	ProfileFailures   int64   `json:"profile_failures"`
	AvgProcessingSec  float64 `json:"avg_processing_sec"`
	PoolWorkers       int     `json:"pool_workers"`
	PoolCompletedJobs int64   `json:"pool_completed_jobs"`
}
