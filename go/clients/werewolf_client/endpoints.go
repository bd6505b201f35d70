package werewolf_client

const (
	// API Endpoints
	GamesEndpoint     = "/api/games"
	BenchmarkEndpoint = "/api/benchmark"

	DefaultBaseURL = "http://localhost:8000"
)
