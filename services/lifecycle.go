package services

import "github.com/clubarena/clubarena/models"

// eventStatusOrder fixes the forward order of the event lifecycle. Advancing
// moves exactly one step; there is no skipping and no moving back.
var eventStatusOrder = []models.EventStatus{
	models.EventStatusDraft,
	models.EventStatusUpcoming,
	models.EventStatusActive,
	models.EventStatusCompleted,
	models.EventStatusClosed,
}

func eventStatusRank(status models.EventStatus) (int, bool) {
	for i, s := range eventStatusOrder {
		if s == status {
			return i, true
		}
	}
	return 0, false
}

// IsValidEventStatus reports whether status is one of the five lifecycle states.
func IsValidEventStatus(status models.EventStatus) bool {
	_, ok := eventStatusRank(status)
	return ok
}

// NextEventStatus returns the only legal next state, or false when the
// status is terminal (closed) or unknown.
func NextEventStatus(status models.EventStatus) (models.EventStatus, bool) {
	rank, ok := eventStatusRank(status)
	if !ok || rank == len(eventStatusOrder)-1 {
		return "", false
	}
	return eventStatusOrder[rank+1], true
}

// StatusAtLeast reports whether status has reached min in lifecycle order.
func StatusAtLeast(status, min models.EventStatus) bool {
	rank, ok := eventStatusRank(status)
	if !ok {
		return false
	}
	minRank, ok := eventStatusRank(min)
	if !ok {
		return false
	}
	return rank >= minRank
}
