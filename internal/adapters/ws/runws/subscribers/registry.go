// Package subscribers forwards pipeline events from the event bus to
// the run feed.
package subscribers

import (
	"plugfolio-deployer/internal/adapters/ws/runws"
	"plugfolio-deployer/internal/domain"
	"plugfolio-deployer/internal/event"
)

type EventBus interface {
	Subscribe(topic string, h event.Handler)
}

type Broadcaster interface {
	Broadcast(ev *domain.WsServerEvent)
}

var _ Broadcaster = (*runws.Hub)(nil)

func Register(bus EventBus, hub Broadcaster) {
	// Trigger Events
	bus.Subscribe(domain.EventExecutionTriggered, NewExecutionTriggered(hub).Handle)

	// Stage Events
	bus.Subscribe(domain.EventStageStarted, NewStageStarted(hub).Handle)
	bus.Subscribe(domain.EventStageFinished, NewStageFinished(hub).Handle)

	// Pipeline Events
	bus.Subscribe(domain.EventPipelineFinished, NewPipelineFinished(hub).Handle)
}

// fanOut sends ev to the shared runs channel and to the execution's own
// channel.
func fanOut(hub Broadcaster, executionID, name string, payload any) {
	hub.Broadcast(&domain.WsServerEvent{
		Channel: domain.WsChannelRuns,
		Event:   name,
		Payload: payload,
	})

	if executionID != "" {
		hub.Broadcast(&domain.WsServerEvent{
			Channel: domain.GetRunChannel(executionID),
			Event:   name,
			Payload: payload,
		})
	}
}
