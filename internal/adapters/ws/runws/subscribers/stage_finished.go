package subscribers

import "plugfolio-deployer/internal/domain"

type StageFinished struct {
	hub Broadcaster
}

func NewStageFinished(hub Broadcaster) *StageFinished {
	return &StageFinished{hub: hub}
}

func (s *StageFinished) Handle(event any) {
	evt, ok := event.(domain.EventStageFinishedPayload)
	if !ok {
		return
	}

	fanOut(s.hub, evt.ExecutionID, domain.EventStageFinished, evt)
}
