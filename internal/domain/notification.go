package domain

import "time"

// NotificationKind identifies the domain event delivered to a user.
type NotificationKind string

const (
	NotificationNewPartnerAssigned NotificationKind = "new_partner_assigned"
	NotificationPartnerWithdrew    NotificationKind = "partner_withdrew"
	NotificationPartnerReassigned  NotificationKind = "partner_reassigned"
	NotificationWorkshopChanged    NotificationKind = "workshop_changed"
)

// Notification is the payload handed to the NotificationEmitter. It is a
// snapshot: delivery never reads pairing state back.
type Notification struct {
	Kind      NotificationKind
	Recipient UserProfile
	Workshop  Workshop
	// Partner is the newly assigned partner (new_partner_assigned,
	// partner_reassigned).
	Partner *UserProfile
	// FormerPartner is the partner who withdrew (partner_withdrew,
	// partner_reassigned).
	FormerPartner *UserProfile
	// Changes is set for workshop_changed only.
	Changes    []WorkshopChange
	OccurredAt time.Time
}

// Cancelled reports whether the notification announces a cancellation.
func (n Notification) Cancelled() bool {
	for _, c := range n.Changes {
		if c.IsCancellation() {
			return true
		}
	}
	return false
}
