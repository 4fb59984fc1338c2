package services

// EventAction is what the ledger does with a gateway event
type EventAction int

const (
	ActionIgnore EventAction = iota
	ActionAcknowledge
	ActionCapture
	ActionFailure
	ActionOrderPaid
	ActionRefundSettled
	ActionRefundFailed
)

// Gateway event names
const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"
	EventOrderPaid         = "order.paid"
	EventRefundProcessed   = "refund.processed"
	EventRefundFailed      = "refund.failed"
)

var eventActions = map[string]EventAction{
	EventPaymentCaptured:   ActionCapture,
	EventPaymentAuthorized: ActionAcknowledge, // capture is authoritative
	EventPaymentFailed:     ActionFailure,
	EventOrderPaid:         ActionOrderPaid,
	EventRefundProcessed:   ActionRefundSettled,
	EventRefundFailed:      ActionRefundFailed,
}

// ClassifyEvent maps a gateway event name to an action. Unknown events are ignored.
func ClassifyEvent(name string) EventAction {
	if action, ok := eventActions[name]; ok {
		return action
	}
	return ActionIgnore
}

func (a EventAction) String() string {
	switch a {
	case ActionAcknowledge:
		return "acknowledge"
	case ActionCapture:
		return "capture"
	case ActionFailure:
		return "failure"
	case ActionOrderPaid:
		return "order_paid"
	case ActionRefundSettled:
		return "refund_settled"
	case ActionRefundFailed:
		return "refund_failed"
	default:
		return "ignore"
	}
}
