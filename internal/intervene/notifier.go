package intervene

import (
	"fmt"
	"os/exec"
)

// DesktopNotifier sends desktop notifications via notify-send.
type DesktopNotifier struct {
	appName string
}

// NewDesktopNotifier creates a notifier for this application.
func NewDesktopNotifier() *DesktopNotifier {
	return &DesktopNotifier{appName: "MyFocus"}
}

// Available checks if notify-send is available.
func (n *DesktopNotifier) Available() bool {
	_, err := exec.LookPath("notify-send")
	return err == nil
}

// Notify sends a desktop notification that expires after the given
// number of seconds. Silently skips when notify-send is missing so a
// headless host degrades without errors.
func (n *DesktopNotifier) Notify(title, message string, urgent bool, timeoutSeconds int) error {
	if !n.Available() {
		return nil
	}

	urgency := "normal"
	icon := "dialog-information"
	if urgent {
		urgency = "critical"
		icon = "dialog-warning"
	}

	args := []string{
		"--app-name=" + n.appName,
		"--urgency=" + urgency,
		"--icon=" + icon,
		fmt.Sprintf("--expire-time=%d", timeoutSeconds*1000),
		title,
		message,
	}

	return exec.Command("notify-send", args...).Run()
}
