package models

// JobStatus is the lifecycle status of a benchmark run.
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusError     JobStatus = "error"
	JobStatusCancelled JobStatus = "cancelled"
)

// Terminal reports whether no further progress happens without external action.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusError, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// BenchmarkRequest starts a batch of games.
type BenchmarkRequest struct {
	NumGames  int               `json:"num_games"`
	Preset    string            `json:"preset"`
	Providers []string          `json:"providers,omitempty"`
	Models    map[string]string `json:"models,omitempty"`
	Seed      *int              `json:"seed,omitempty"`
}

// BenchmarkResults is the aggregate filled in as games complete.
type BenchmarkResults struct {
	WinRates      map[string]float64 `json:"win_rates"`
	Wins          map[string]int     `json:"wins"`
	AvgRounds     float64            `json:"avg_rounds"`
	MinRounds     int                `json:"min_rounds"`
	MaxRounds     int                `json:"max_rounds"`
	AvgDuration   float64            `json:"avg_duration"`
	TotalDuration float64            `json:"total_duration"`
	Error         string             `json:"error,omitempty"`
}

// Benchmark is the job status record. Each poll replaces it whole.
type Benchmark struct {
	ID             string            `json:"benchmark_id"`
	Status         JobStatus         `json:"status"`
	TotalGames     int               `json:"total_games"`
	CompletedGames int               `json:"completed_games"`
	Results        *BenchmarkResults `json:"results,omitempty"`
}

// Progress returns the completed fraction in [0, 1].
func (b Benchmark) Progress() float64 {
	if b.TotalGames <= 0 {
		return 0
	}
	p := float64(b.CompletedGames) / float64(b.TotalGames)
	if p > 1 {
		return 1
	}
	return p
}
