package domain

// PushEvent is the subset of a repository push webhook the trigger
// reads.
type PushEvent struct {
	Repository PushRepository `json:"repository"`
}

type PushRepository struct {
	CloneURL string `json:"clone_url" validate:"required,url"`
}

type TriggerResponse struct {
	ExecutionArn string `json:"executionArn"`
}
