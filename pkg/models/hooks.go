package models

// HookEventName identifies a lifecycle point reported by the agent's tooling.
type HookEventName string

const (
	HookSessionStart     HookEventName = "SessionStart"
	HookUserPromptSubmit HookEventName = "UserPromptSubmit"
	HookPreToolUse       HookEventName = "PreToolUse"
	HookPostToolUse      HookEventName = "PostToolUse"
	HookNotification     HookEventName = "Notification"
	HookStop             HookEventName = "Stop"
	HookSessionEnd       HookEventName = "SessionEnd"
)

// Notification subtypes carried on Notification events.
const (
	NotificationPermissionPrompt = "permission_prompt"
	NotificationIdlePrompt       = "idle_prompt"
)

// HookEvent is the JSON payload a hook invocation delivers on stdin.
// It is ephemeral input and never persisted as-is.
type HookEvent struct {
	SessionID        string        `json:"session_id"`
	CWD              string        `json:"cwd"`
	TTY              string        `json:"tty,omitempty"`
	HookEventName    HookEventName `json:"hook_event_name"`
	NotificationType string        `json:"notification_type,omitempty"`
	Prompt           string        `json:"prompt,omitempty"`
	ToolName         string        `json:"tool_name,omitempty"`
}
