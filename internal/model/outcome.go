package model

// Hook event types emitted by the agent orchestration tool. The store treats
// event_type as an opaque label; these constants exist for the pieces of the
// system that do interpret it (outcome bucketing, NATS subjects, test data).
// The set is open: unknown types flow through ingestion untouched.
const (
	EventSessionStart      = "SessionStart"
	EventSessionEnd        = "SessionEnd"
	EventStop              = "Stop"
	EventPreToolUse        = "PreToolUse"
	EventPostToolUse       = "PostToolUse"
	EventPostToolUseFailed = "PostToolUseFailure"
	EventNotification      = "Notification"
	EventPermissionRequest = "PermissionRequest"
	EventTokenUsage        = "TokenUsage"
)

// Outcome is the success/failure bucket a tool-outcome event falls into.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// toolOutcomeTypes maps each tool-outcome event type to its bucket. Kept as an
// explicit table rather than inferred from payload content; extend it here if
// the orchestrator grows new outcome hooks.
var toolOutcomeTypes = map[string]Outcome{
	EventPostToolUse:       OutcomeSuccess,
	EventPostToolUseFailed: OutcomeFailure,
}

// ToolOutcomeEventTypes returns the event types that count toward the
// success/failure statistics, in stable order.
func ToolOutcomeEventTypes() []string {
	return []string{EventPostToolUse, EventPostToolUseFailed}
}

// FailureEventTypes returns the tool-outcome event types bucketed as failures.
func FailureEventTypes() []string {
	var types []string
	for _, t := range ToolOutcomeEventTypes() {
		if toolOutcomeTypes[t] == OutcomeFailure {
			types = append(types, t)
		}
	}
	return types
}

// OutcomeFor returns the bucket for a tool-outcome event type. The second
// return value is false for event types that are not tool outcomes at all.
func OutcomeFor(eventType string) (Outcome, bool) {
	o, ok := toolOutcomeTypes[eventType]
	return o, ok
}
