package subscribers

import "plugfolio-deployer/internal/domain"

type PipelineFinished struct {
	hub Broadcaster
}

func NewPipelineFinished(hub Broadcaster) *PipelineFinished {
	return &PipelineFinished{hub: hub}
}

func (s *PipelineFinished) Handle(event any) {
	evt, ok := event.(domain.EventPipelineFinishedPayload)
	if !ok {
		return
	}

	fanOut(s.hub, evt.ExecutionID, domain.EventPipelineFinished, evt)
}
