package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mcdev12/werewolf/go/clients/werewolf_client"
	"github.com/mcdev12/werewolf/go/internal/models"
)

const gamesUsage = `usage: werewolf games <create|list|get|join|start|pause|resume|speed> [flags] [game id]`

func runGames(args []string) error {
	if len(args) == 0 {
		return errors.New(gamesUsage)
	}
	action, args := args[0], args[1:]

	fs := flag.NewFlagSet("games "+action, flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	preset := fs.String("preset", "6p", "game preset (create)")
	mode := fs.String("mode", string(models.GameModeAIVsAI), "ai_vs_ai, human_vs_ai or spectate (create)")
	seed := fs.Int("seed", -1, "random seed (create, start)")
	provider := fs.String("provider", "", "AI provider (create)")
	model := fs.String("model", "", "AI model (create)")
	name := fs.String("name", "", "player name (join)")
	seat := fs.Int("seat", -1, "seat id (join)")
	speed := fs.Float64("speed", 1.0, "playback speed (create, speed)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load()
	if err != nil {
		return err
	}
	client := newClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout+5*time.Second)
	defer cancel()

	gameID := fs.Arg(0)
	needGame := func() error {
		if gameID == "" {
			return fmt.Errorf("games %s: game id is required", action)
		}
		return nil
	}
	optional := func(v int) *int {
		if v < 0 {
			return nil
		}
		return &v
	}

	switch action {
	case "create":
		resp, err := client.CreateGame(ctx, models.CreateGameRequest{
			Preset:     *preset,
			Mode:       models.GameMode(*mode),
			Seed:       optional(*seed),
			AIProvider: *provider,
			AIModel:    *model,
			Speed:      *speed,
		})
		if err != nil {
			return err
		}
		return printJSON(resp)

	case "list":
		games, err := client.ListGames(ctx)
		if err != nil {
			return err
		}
		for _, g := range games {
			fmt.Printf("%s\t%s\t%s\t%d players\t%s\n", g.GameID, g.Status, g.Mode, g.PlayerCount, g.CreatedAt)
		}
		return nil

	case "get":
		if err := needGame(); err != nil {
			return err
		}
		game, err := client.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		return printJSON(game)

	case "join":
		if err := needGame(); err != nil {
			return err
		}
		resp, err := client.JoinGame(ctx, gameID, models.JoinGameRequest{PlayerName: *name, SeatID: optional(*seat)})
		if err != nil {
			return err
		}
		return printJSON(resp)

	case "start", "pause", "resume", "speed":
		if err := needGame(); err != nil {
			return err
		}
		msg, err := lifecycle(ctx, client, action, gameID, optional(*seed), *speed)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil

	default:
		return fmt.Errorf("unknown games command %q\n%s", action, gamesUsage)
	}
}

func lifecycle(ctx context.Context, client *werewolf_client.WerewolfClient, action, gameID string, seed *int, speed float64) (string, error) {
	switch action {
	case "start":
		return client.StartGame(ctx, gameID, seed)
	case "pause":
		return client.PauseGame(ctx, gameID)
	case "resume":
		return client.ResumeGame(ctx, gameID)
	default:
		return client.SetSpeed(ctx, gameID, speed)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
