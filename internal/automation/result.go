package automation

// Action identifies the side effect triggered for a contact
type Action string

const (
	ActionEmailSales    Action = "email_sales"
	ActionNotifySupport Action = "notify_support"
	ActionNone          Action = "none"
)

// Priority ranks the follow-up urgency of a contact
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Result is the outcome of a single dispatch
type Result struct {
	Action   Action   `json:"action"`
	Success  bool     `json:"success"`
	Priority Priority `json:"priority"`
	Error    string   `json:"error,omitempty"`
	Message  string   `json:"message,omitempty"`
}
