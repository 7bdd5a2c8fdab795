package subscribers

import "plugfolio-deployer/internal/domain"

type ExecutionTriggered struct {
	hub Broadcaster
}

func NewExecutionTriggered(hub Broadcaster) *ExecutionTriggered {
	return &ExecutionTriggered{hub: hub}
}

func (s *ExecutionTriggered) Handle(event any) {
	evt, ok := event.(domain.EventExecutionTriggeredPayload)
	if !ok {
		return
	}

	fanOut(s.hub, evt.ExecutionID, domain.EventExecutionTriggered, evt)
}
