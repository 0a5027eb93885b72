// Package intervene decides whether a classification result warrants
// interrupting the user, and delivers the interruption. The decision
// itself is a pure function; the manager around it owns the cooldown
// clock and the random draw for encouragements.
package intervene

import (
	"fmt"

	"myfocus/internal/config"
	"myfocus/internal/model"
)

// severeExtraSeconds extends the popup for severe warnings so they
// outlast the light reminders.
const severeExtraSeconds = 5

// Action is one concrete intervention to deliver.
type Action struct {
	Kind           model.InterventionKind
	Title          string
	Message        string
	Urgent         bool
	DisplaySeconds int
	SoundEnabled   bool
}

// encouragementProbability maps the configured frequency tier to the
// chance that a focused sample produces an encouragement.
func encouragementProbability(frequency string) float64 {
	switch frequency {
	case "low":
		return 1.0 / 20
	case "high":
		return 1.0 / 5
	default: // medium
		return 1.0 / 10
	}
}

// Decide maps one focus state to an intervention, or nil when nothing
// should happen. draw is a uniform sample in [0,1) consumed only for
// encouragement gating; passing it in keeps the function pure.
func Decide(state model.FocusState, cfg config.InterventionConfig, inCooldown bool, currentTask string, draw float64) *Action {
	if !cfg.Enabled || inCooldown {
		return nil
	}

	switch state {
	case model.StateDistracted:
		if !cfg.LightNotification {
			return nil
		}
		message := "检测到轻度分心，建议重新集中注意力。"
		if currentTask != "" {
			message = fmt.Sprintf("检测到轻度分心，当前任务：%s。建议重新集中注意力。", currentTask)
		}
		return &Action{
			Kind:           model.InterventionLight,
			Title:          "专注提醒",
			Message:        message,
			DisplaySeconds: cfg.PopupDurationSeconds,
			SoundEnabled:   cfg.NotificationSound,
		}

	case model.StateSeverelyDistracted:
		if !cfg.SeverePopup {
			return nil
		}
		message := "严重分心警告！请立即回到工作状态！"
		if currentTask != "" {
			message = fmt.Sprintf("严重分心警告！当前任务：%s。请立即回到工作状态！", currentTask)
		}
		return &Action{
			Kind:           model.InterventionSevere,
			Title:          "严重分心警告",
			Message:        message,
			Urgent:         true,
			DisplaySeconds: cfg.PopupDurationSeconds + severeExtraSeconds,
			SoundEnabled:   cfg.NotificationSound,
		}

	case model.StateFocused:
		if !cfg.EncouragementEnabled {
			return nil
		}
		if draw >= encouragementProbability(cfg.EncouragementFrequency) {
			return nil
		}
		message := "专注状态良好！继续保持。"
		if currentTask != "" {
			message = fmt.Sprintf("专注状态良好！继续保持对「%s」的专注。", currentTask)
		}
		return &Action{
			Kind:           model.InterventionEncouragement,
			Title:          "专注鼓励",
			Message:        message,
			DisplaySeconds: cfg.PopupDurationSeconds,
			SoundEnabled:   cfg.NotificationSound,
		}
	}

	// Unknown never interrupts.
	return nil
}
