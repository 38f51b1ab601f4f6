// Package scheduler provides the background task queue for deferred order
// recalculation. When the inline recalculation after a discount write
// fails, the order is re-aggregated here instead of being left stale.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskOrderRecalculate = "orders.recalculate"

type OrderRecalculatePayload struct {
	OrderID   string `json:"orderId"`
	OrderKind string `json:"orderKind"`
}

func NewOrderRecalculateTask(payload OrderRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderRecalculate, data), nil
}

func ParseOrderRecalculatePayload(task *asynq.Task) (OrderRecalculatePayload, error) {
	var payload OrderRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return OrderRecalculatePayload{}, err
	}
	return payload, nil
}
