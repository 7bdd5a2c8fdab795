package subscribers

import "plugfolio-deployer/internal/domain"

type StageStarted struct {
	hub Broadcaster
}

func NewStageStarted(hub Broadcaster) *StageStarted {
	return &StageStarted{hub: hub}
}

func (s *StageStarted) Handle(event any) {
	evt, ok := event.(domain.EventStageStartedPayload)
	if !ok {
		return
	}

	fanOut(s.hub, evt.ExecutionID, domain.EventStageStarted, evt)
}
