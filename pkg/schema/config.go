package schema

import "encoding/json"

// Node configuration variants. Each configurable node type carries its own
// strongly-typed field set; start, end, merge and parallel nodes have label
// and description only. Validate tags are enforced by the validation
// pipeline, not at decode time, so partially-filled drafts stay editable.

// HTTPMethod is the request method of an api node.
type HTTPMethod string

const (
	MethodGet    HTTPMethod = "GET"
	MethodPost   HTTPMethod = "POST"
	MethodPut    HTTPMethod = "PUT"
	MethodDelete HTTPMethod = "DELETE"
)

// NotifyChannel is the delivery channel of a notification node.
type NotifyChannel string

const (
	ChannelEmail   NotifyChannel = "email"
	ChannelSlack   NotifyChannel = "slack"
	ChannelWebhook NotifyChannel = "webhook"
)

// TaskConfig configures a task node.
type TaskConfig struct {
	Command        string `json:"command" validate:"required"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=1"`
}

// DecisionConfig configures a decision node. Condition is an expr expression
// evaluated by the simulator; its result is exposed to connection guards as
// the `decision` variable.
type DecisionConfig struct {
	Condition string `json:"condition" validate:"required"`
}

// DelayConfig configures a delay node. The configured seconds are simulated
// time; the simulator's wall-clock step delay is independent.
type DelayConfig struct {
	DelaySeconds int `json:"delay_seconds" validate:"gte=1"`
}

// APIConfig configures an api node. Body is JSON by convention but is not
// validated on save; the simulator parses it best-effort.
type APIConfig struct {
	Method HTTPMethod `json:"method" validate:"required,oneof=GET POST PUT DELETE"`
	URL    string     `json:"url" validate:"required,url"`
	Body   string     `json:"body,omitempty"`
}

// NotificationConfig configures a notification node.
type NotificationConfig struct {
	Channel    NotifyChannel `json:"channel" validate:"required,oneof=email slack webhook"`
	Recipients string        `json:"recipients" validate:"required"`
	Message    string        `json:"message" validate:"required"`
}

// DefaultConfig returns the default configuration variant for a node type,
// or nil for types that carry no type-specific config.
func DefaultConfig(t NodeType) any {
	switch t {
	case NodeTypeTask:
		return &TaskConfig{TimeoutSeconds: 30}
	case NodeTypeDecision:
		return &DecisionConfig{}
	case NodeTypeDelay:
		return &DelayConfig{DelaySeconds: 1}
	case NodeTypeAPI:
		return &APIConfig{Method: MethodGet}
	case NodeTypeNotification:
		return &NotificationConfig{Channel: ChannelEmail}
	default:
		return nil
	}
}

// Configurable reports whether a node type has a type-specific config form.
func Configurable(t NodeType) bool {
	return DefaultConfig(t) != nil
}

// DecodeConfig unmarshals raw into the typed variant for t. Missing numeric
// fields fall back to the type's defaults. Returns nil for types without
// config. Decode errors become VALIDATION_ERROR.
func DecodeConfig(t NodeType, raw json.RawMessage) (any, error) {
	cfg := DefaultConfig(t)
	if cfg == nil {
		return nil, nil
	}
	if len(raw) == 0 {
		return cfg, nil
	}
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, NewErrorf(ErrCodeValidation, "invalid %s config: %s", t, err.Error()).WithCause(err)
	}
	return cfg, nil
}

// EncodeConfig marshals a typed config variant back into a node's config bag.
func EncodeConfig(cfg any) (json.RawMessage, error) {
	if cfg == nil {
		return nil, nil
	}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return nil, NewErrorf(ErrCodeValidation, "encode config: %s", err.Error()).WithCause(err)
	}
	return raw, nil
}
