package werewolf_client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/mcdev12/werewolf/go/internal/models"
)

func (c *WerewolfClient) CreateGame(ctx context.Context, req models.CreateGameRequest) (*models.CreateGameResponse, error) {
	var resp models.CreateGameResponse
	if err := c.PostJSON(ctx, GamesEndpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}
	return &resp, nil
}

func (c *WerewolfClient) ListGames(ctx context.Context) ([]models.GameListItem, error) {
	var games []models.GameListItem
	if err := c.GetJSON(ctx, GamesEndpoint, &games); err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	return games, nil
}

// GetGame fetches the current snapshot over REST, for callers without a live session.
func (c *WerewolfClient) GetGame(ctx context.Context, gameID string) (*models.Snapshot, error) {
	var snapshot models.Snapshot
	if err := c.GetJSON(ctx, gameEndpoint(gameID, ""), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
	}
	return &snapshot, nil
}

func (c *WerewolfClient) JoinGame(ctx context.Context, gameID string, req models.JoinGameRequest) (*models.JoinGameResponse, error) {
	var resp models.JoinGameResponse
	if err := c.PostJSON(ctx, gameEndpoint(gameID, "/join"), req, &resp); err != nil {
		return nil, fmt.Errorf("failed to join game %s: %w", gameID, err)
	}
	return &resp, nil
}

// StartGame starts a waiting game. A nil seed lets the server choose.
func (c *WerewolfClient) StartGame(ctx context.Context, gameID string, seed *int) (string, error) {
	endpoint := gameEndpoint(gameID, "/start")
	if seed != nil {
		endpoint += "?seed=" + strconv.Itoa(*seed)
	}
	return c.command(ctx, gameID, "start", endpoint)
}

func (c *WerewolfClient) PauseGame(ctx context.Context, gameID string) (string, error) {
	return c.command(ctx, gameID, "pause", gameEndpoint(gameID, "/pause"))
}

func (c *WerewolfClient) ResumeGame(ctx context.Context, gameID string) (string, error) {
	return c.command(ctx, gameID, "resume", gameEndpoint(gameID, "/resume"))
}

// SetSpeed changes the game's speed multiplier.
func (c *WerewolfClient) SetSpeed(ctx context.Context, gameID string, speed float64) (string, error) {
	endpoint := gameEndpoint(gameID, "/speed") + "?speed=" + strconv.FormatFloat(speed, 'f', -1, 64)
	return c.command(ctx, gameID, "set speed", endpoint)
}

func (c *WerewolfClient) command(ctx context.Context, gameID, name, endpoint string) (string, error) {
	var resp models.MessageResponse
	if err := c.PostJSON(ctx, endpoint, nil, &resp); err != nil {
		return "", fmt.Errorf("failed to %s game %s: %w", name, gameID, err)
	}
	return resp.Message, nil
}

func gameEndpoint(gameID, suffix string) string {
	return GamesEndpoint + "/" + url.PathEscape(gameID) + suffix
}
