package werewolf_client

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mcdev12/werewolf/go/internal/models"
)

// StartBenchmark creates a benchmark job and returns its initial record.
func (c *WerewolfClient) StartBenchmark(ctx context.Context, req models.BenchmarkRequest) (models.Benchmark, error) {
	var b models.Benchmark
	if err := c.PostJSON(ctx, BenchmarkEndpoint, req, &b); err != nil {
		return models.Benchmark{}, fmt.Errorf("failed to start benchmark: %w", err)
	}
	return b, nil
}

// GetBenchmark fetches the latest record of a job.
func (c *WerewolfClient) GetBenchmark(ctx context.Context, benchmarkID string) (models.Benchmark, error) {
	var b models.Benchmark
	if err := c.GetJSON(ctx, benchmarkEndpoint(benchmarkID, ""), &b); err != nil {
		return models.Benchmark{}, fmt.Errorf("failed to get benchmark %s: %w", benchmarkID, err)
	}
	return b, nil
}

func (c *WerewolfClient) CancelBenchmark(ctx context.Context, benchmarkID string) (string, error) {
	var resp models.MessageResponse
	if err := c.PostJSON(ctx, benchmarkEndpoint(benchmarkID, "/cancel"), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to cancel benchmark %s: %w", benchmarkID, err)
	}
	return resp.Message, nil
}

func benchmarkEndpoint(id, suffix string) string {
	return BenchmarkEndpoint + "/" + url.PathEscape(id) + suffix
}
