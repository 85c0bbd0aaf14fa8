package display

import "github.com/Nixie-Tech-LLC/minbar/internal/model"

// Event drives the display state machine.
type Event string

const (
	EventArrival          Event = "arrival"
	EventFridayArrival    Event = "friday_arrival"
	EventExpire           Event = "expire"
	EventScreensaverEnter Event = "screensaver_enter"
	EventScreensaverLeave Event = "screensaver_leave"
	EventOverride         Event = "override"
)

// Events lists every automatic event. Manual overrides bypass the table.
var Events = []Event{EventArrival, EventFridayArrival, EventExpire, EventScreensaverEnter, EventScreensaverLeave}

// transitions is total over DisplayModes x Events; a mode mapping to itself ignores the event.
var transitions = map[model.DisplayMode]map[Event]model.DisplayMode{
	model.ModeNone: {
		EventArrival:          model.ModeCallToPrayer,
		EventFridayArrival:    model.ModePreSermon,
		EventExpire:           model.ModeNone,
		EventScreensaverEnter: model.ModeScreensaver,
		EventScreensaverLeave: model.ModeNone,
	},
	model.ModePreAnnounce: {
		EventArrival:          model.ModePreAnnounce,
		EventFridayArrival:    model.ModePreAnnounce,
		EventExpire:           model.ModeNone,
		EventScreensaverEnter: model.ModePreAnnounce,
		EventScreensaverLeave: model.ModePreAnnounce,
	},
	model.ModeCallToPrayer: {
		EventArrival:          model.ModeCallToPrayer,
		EventFridayArrival:    model.ModeCallToPrayer,
		EventExpire:           model.ModeCongregationalWait,
		EventScreensaverEnter: model.ModeCallToPrayer,
		EventScreensaverLeave: model.ModeCallToPrayer,
	},
	model.ModeCongregationalWait: {
		EventArrival:          model.ModeCongregationalWait,
		EventFridayArrival:    model.ModeCongregationalWait,
		EventExpire:           model.ModePrayer,
		EventScreensaverEnter: model.ModeCongregationalWait,
		EventScreensaverLeave: model.ModeCongregationalWait,
	},
	model.ModePrayer: {
		EventArrival:          model.ModePrayer,
		EventFridayArrival:    model.ModePrayer,
		EventExpire:           model.ModeNone,
		EventScreensaverEnter: model.ModePrayer,
		EventScreensaverLeave: model.ModePrayer,
	},
	model.ModeScreensaver: {
		EventArrival:          model.ModeScreensaver,
		EventFridayArrival:    model.ModeScreensaver,
		EventExpire:           model.ModeNone,
		EventScreensaverEnter: model.ModeScreensaver,
		EventScreensaverLeave: model.ModeNone,
	},
	model.ModeFridayAnnounce: {
		EventArrival:          model.ModeFridayAnnounce,
		EventFridayArrival:    model.ModeFridayAnnounce,
		EventExpire:           model.ModeNone,
		EventScreensaverEnter: model.ModeFridayAnnounce,
		EventScreensaverLeave: model.ModeFridayAnnounce,
	},
	model.ModePreSermon: {
		EventArrival:          model.ModePreSermon,
		EventFridayArrival:    model.ModePreSermon,
		EventExpire:           model.ModeSermon,
		EventScreensaverEnter: model.ModePreSermon,
		EventScreensaverLeave: model.ModePreSermon,
	},
	model.ModeSermon: {
		EventArrival:          model.ModeSermon,
		EventFridayArrival:    model.ModeSermon,
		EventExpire:           model.ModePrayer,
		EventScreensaverEnter: model.ModeSermon,
		EventScreensaverLeave: model.ModeSermon,
	},
}

// Next looks up the successor of mode under ev. ok is false when the event is ignored.
func Next(mode model.DisplayMode, ev Event) (model.DisplayMode, bool) {
	next, found := transitions[mode][ev]
	if !found {
		return mode, false
	}
	return next, next != mode
}
