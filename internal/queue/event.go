// Package queue defines message payloads exchanged over the message broker
// and the publisher/consumer used to move them.
package queue

// TransitionMessage is published whenever a workflow transition commits.
// It carries enough context for downstream consumers to notify or audit
// without querying the primary database.
type TransitionMessage struct {
	AggregateType string `json:"aggregate_type"`
	AggregateID   int64  `json:"aggregate_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Stage         string `json:"stage,omitempty"`
	Action        string `json:"action"`
	ActorID       int32  `json:"actor_id"`
	ActorRole     string `json:"actor_role"`
	RequesterID   int32  `json:"requester_id"`
	RequesterName string `json:"requester_name,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
