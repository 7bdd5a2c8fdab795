package runws

import (
	"context"
	"encoding/json"

	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/logger"
)

// Hub fans pipeline events out to websocket clients. Clients receive
// every event on the runs channel and may subscribe to run:<id> for a
// single execution.
type Hub struct {
	ctx    context.Context
	cancel context.CancelFunc

	clients  map[*Client]bool
	channels map[string]map[*Client]bool

	register    chan *Client
	unregister  chan *Client
	subscribe   chan *Subscription
	unsubscribe chan *Subscription
	events      chan *domain.WsServerEvent

	log logger.Logger
}

type Subscription struct {
	client  *Client
	channel string
}

func NewHub(parent context.Context, log logger.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)

	return &Hub{
		ctx:    ctx,
		cancel: cancel,

		clients:  make(map[*Client]bool),
		channels: make(map[string]map[*Client]bool),

		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		subscribe:   make(chan *Subscription, 64),
		unsubscribe: make(chan *Subscription, 64),
		events:      make(chan *domain.WsServerEvent, 256),

		log: log,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.log.Info("ws: hub shutting down...")
			for client := range h.clients {
				close(client.send)
			}
			return

		case c := <-h.register:
			h.clients[c] = true
			h.join(c, domain.WsChannelRuns)
			h.log.Info("ws: client registered", "id", c.ID, "total_clients", len(h.clients))

		case c := <-h.unregister:
			if !h.clients[c] {
				continue
			}
			h.drop(c)
			h.log.Info("ws: client unregistered", "id", c.ID, "total_clients", len(h.clients))

		case sub := <-h.subscribe:
			if !h.clients[sub.client] {
				continue
			}
			h.join(sub.client, sub.channel)

		case sub := <-h.unsubscribe:
			if subs, ok := h.channels[sub.channel]; ok {
				if _, subscribed := subs[sub.client]; subscribed {
					delete(subs, sub.client)
					if len(subs) == 0 {
						delete(h.channels, sub.channel)
					}
				}
			}

		case ev := <-h.events:
			h.handleEvent(ev)
		}
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Subscribe(c *Client, channel string) {
	select {
	case h.subscribe <- &Subscription{client: c, channel: channel}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unsubscribe(c *Client, channel string) {
	select {
	case h.unsubscribe <- &Subscription{client: c, channel: channel}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.ctx.Done():
	}
}

func (h *Hub) Stop() {
	h.cancel()
}

func (h *Hub) Broadcast(ev *domain.WsServerEvent) {
	select {
	case h.events <- ev:
	case <-h.ctx.Done():
	default:
		h.log.Warn("ws: broadcast buffer full, dropping event", "event", ev.Event)
	}
}

func (h *Hub) handleEvent(ev *domain.WsServerEvent) {
	message, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("ws: failed to marshal server event", "error", err)
		return
	}

	targetClients := h.clients

	if ev.Channel != "" {
		if subs, ok := h.channels[ev.Channel]; ok {
			targetClients = subs
		} else {
			h.log.Debug("ws: event channels has no subscribers", "channel", ev.Channel)
			return
		}
	}

	for client := range targetClients {
		select {
		case client.send <- message:
		default:
			h.log.Warn("ws: client channel full, force unregister", "id", client.ID)
			h.drop(client)
		}
	}
}

func (h *Hub) join(c *Client, channel string) {
	if h.channels[channel] == nil {
		h.channels[channel] = make(map[*Client]bool)
	}
	h.channels[channel][c] = true
}

// drop is only called from Run.
func (h *Hub) drop(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	close(c.send)
	for chID, subs := range h.channels {
		delete(subs, c)
		if len(subs) == 0 {
			delete(h.channels, chID)
		}
	}
}
