package monitor

import "github.com/gen2brain/beeep"

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, message string) error
}

// DesktopNotifier sends notifications through the OS notification center.
type DesktopNotifier struct {
	// Sound plays an alert sound with each notification.
	Sound bool
}

// NewDesktopNotifier returns a notifier that identifies itself as ocburn.
func NewDesktopNotifier(sound bool) *DesktopNotifier {
	beeep.AppName = "ocburn"
	return &DesktopNotifier{Sound: sound}
}

// Notify implements Notifier.
func (n *DesktopNotifier) Notify(title, message string) error {
	if n.Sound {
		return beeep.Alert(title, message, "")
	}
	return beeep.Notify(title, message, "")
}
