// Package alert evaluates the newest sensor record against the alarm
// conditions and fans the result out to a local sounder and an outbound
// notifier, subject to a shared cooldown.
package alert

import (
	"context"
	"time"

	"github.com/couchcryptid/trashrake-monitor/internal/domain"
)

// Event names the alarm condition carried by a notification.
type Event string

const (
	EventTrashDetected Event = "TRASH_DETECTED_ALARM"
	EventHighWater     Event = "HIGH_WATER_ALERT"
)

// isoMillis matches the millisecond ISO-8601 form expected by the webhook.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Notification is the flat JSON body posted to the webhook. Only the fields
// belonging to the triggering event are set.
type Notification struct {
	Event Event `json:"event"`

	TofValue   float64 `json:"tof_value,omitempty"`
	HydroLevel string  `json:"hydro_level,omitempty"`

	CurrentLevel string `json:"current_level,omitempty"`
	TrashStatus  string `json:"trash_status,omitempty"`

	Timestamp string `json:"timestamp"`
	Location  string `json:"location"`
}

// Notifier delivers a notification downstream. A nil error means the send
// was issued; delivery is not confirmed.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Sounder plays the local audible alarm.
type Sounder interface {
	Sound() error
}

func trashNotification(r domain.Record, now time.Time, location string) Notification {
	return Notification{
		Event:      EventTrashDetected,
		TofValue:   r.Distance,
		HydroLevel: string(r.Level),
		Timestamp:  now.UTC().Format(isoMillis),
		Location:   location,
	}
}

func highWaterNotification(r domain.Record, now time.Time, location string) Notification {
	return Notification{
		Event:        EventHighWater,
		CurrentLevel: string(r.Level),
		TrashStatus:  string(r.Detection),
		Timestamp:    now.UTC().Format(isoMillis),
		Location:     location,
	}
}
