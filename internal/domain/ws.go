package domain

import (
	"encoding/json"
	"fmt"
)

const (
	WsChannelRuns        = "runs"
	WsChannelRunTemplate = "run:%s"
	WsSubscribe          = "subscribe"
	WsUnsubscribe        = "unsubscribe"
)

type WsClientMessage struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type WsServerEvent struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func GetRunChannel(executionID string) string {
	return fmt.Sprintf(WsChannelRunTemplate, executionID)
}
