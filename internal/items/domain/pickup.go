package domain

import "time"

type PickupRequest struct {
	ID            string     `json:"id"`
	ItemID        string     `json:"itemId"`
	UserID        string     `json:"userId"`
	PickupAddress string     `json:"pickupAddress"`
	ScheduledDate *time.Time `json:"scheduledDate"`
	Notes         *string    `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
}
