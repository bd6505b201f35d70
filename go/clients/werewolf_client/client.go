// Package werewolf_client calls the game server's REST surface: game lifecycle
// commands and benchmark jobs.
package werewolf_client

import (
	"github.com/mcdev12/werewolf/go/clients"
)

type WerewolfClient struct {
	*clients.BaseClient
}

func NewWerewolfClient(baseURL string) *WerewolfClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &WerewolfClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}
}
