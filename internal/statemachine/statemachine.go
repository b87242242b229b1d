// Package statemachine maps hook events onto session status and derived
// fields. Both functions are pure; callers persist the result.
package statemachine

import "github.com/grovetools/lookout/pkg/models"

// NextStatus returns the status a session moves to when the given event
// arrives. Rules are evaluated top to bottom, first match wins:
//
//  1. Stop always stops.
//  2. A new prompt always resumes, even from stopped.
//  3. Otherwise a stopped session stays stopped.
//  4. PreToolUse runs.
//  5. PostToolUse keeps the current status.
//  6. A permission prompt waits for input.
//  7. An idle prompt keeps the current status.
//  8. Everything else runs.
func NextStatus(ev models.HookEvent, current models.Status) models.Status {
	switch {
	case ev.HookEventName == models.HookStop:
		return models.StatusStopped

	case ev.HookEventName == models.HookUserPromptSubmit:
		return models.StatusRunning

	case current == models.StatusStopped:
		return models.StatusStopped

	case ev.HookEventName == models.HookPreToolUse:
		return models.StatusRunning

	case ev.HookEventName == models.HookPostToolUse:
		return orRunning(current)

	case ev.HookEventName == models.HookNotification && ev.NotificationType == models.NotificationPermissionPrompt:
		return models.StatusWaitingInput

	case ev.HookEventName == models.HookNotification && ev.NotificationType == models.NotificationIdlePrompt:
		return orRunning(current)

	default:
		return models.StatusRunning
	}
}

func orRunning(s models.Status) models.Status {
	if s == "" {
		return models.StatusRunning
	}
	return s
}

// ApplyFields applies the event's derived field updates to the session:
// last prompt, current tool and notification type. Status is not touched
// here. SessionStart is a pass-through.
func ApplyFields(ev models.HookEvent, s *models.Session) {
	switch ev.HookEventName {
	case models.HookSessionStart:
		// Pass-through: record creation is handled by the store facade.

	case models.HookStop:
		s.CurrentTool = ""
		s.NotificationType = ""

	case models.HookUserPromptSubmit:
		if ev.Prompt != "" {
			s.LastPrompt = ev.Prompt
		}
		s.NotificationType = ""

	case models.HookPreToolUse:
		s.CurrentTool = ev.ToolName

	case models.HookPostToolUse:
		// Notification is preserved across tool completion.
		s.CurrentTool = ""

	case models.HookNotification:
		switch ev.NotificationType {
		case models.NotificationPermissionPrompt, models.NotificationIdlePrompt:
			s.NotificationType = ev.NotificationType
		default:
			// Unrecognized notifications are treated like any other
			// unmatched event: tool cleared, notification untouched.
			s.CurrentTool = ""
		}

	default:
		// SessionEnd and unmatched events clear the tool, everything else
		// is preserved.
		s.CurrentTool = ""
	}
}
