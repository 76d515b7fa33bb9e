// Package tray provides the system tray switch and level readout of handlevel.
package tray

import (
	"fmt"
	"log"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/handlevel/internal/gesture"
	"github.com/ayusman/handlevel/internal/session"
)

// Controller is the session surface the tray drives and displays.
type Controller interface {
	Enable() error
	Disable()
	Snapshot() session.Snapshot
	Subscribe() (<-chan session.Snapshot, func())
}

// Tray represents the system tray application.
type Tray struct {
	session    Controller
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuStatus *systray.MenuItem

	stop func()
}

// New creates a Tray bound to s.
func New(s Controller) *Tray {
	return &Tray{session: s}
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called or the quit item is clicked.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handlevel")
	systray.SetTooltip("Hand gesture level control")

	snap := t.session.Snapshot()

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(snap), "Toggle gesture control")
	systray.AddSeparator()
	t.menuStatus = systray.AddMenuItem(statusTitle(snap), "Current gesture and level")
	t.menuStatus.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handlevel")

	snapshots, cancel := t.session.Subscribe()
	t.mu.Lock()
	t.stop = cancel
	t.mu.Unlock()

	go func() {
		for snap := range snapshots {
			t.render(snap)
		}
	}()

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {
	t.mu.Lock()
	stop := t.stop
	t.stop = nil
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// handleToggle flips the session between enabled and disabled.
func (t *Tray) handleToggle() {
	if t.session.Snapshot().Enabled {
		t.session.Disable()
		return
	}
	if err := t.session.Enable(); err != nil {
		log.Printf("Failed to enable gesture control: %v", err)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// render updates the menu titles from snap.
func (t *Tray) render(snap session.Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(snap))
	}
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(statusTitle(snap))
	}
}

func toggleTitle(snap session.Snapshot) string {
	switch {
	case snap.Err != "":
		return "⚠ Unavailable"
	case snap.Enabled:
		return "● Enabled"
	default:
		return "○ Disabled"
	}
}

func statusTitle(snap session.Snapshot) string {
	level := fmt.Sprintf("%d%%", int(snap.Value*100+0.5))
	if !snap.Enabled {
		return "Level " + level
	}
	if snap.Gesture == gesture.NoHand {
		return "No hand · " + level
	}
	return fmt.Sprintf("%s · %s", snap.Gesture, level)
}
