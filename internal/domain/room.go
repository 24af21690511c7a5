package domain

import "time"

const (
	DefaultDestination = "shinjuku"
	DefaultBusStyle    = "party"
)

// LocationState: где сейчас автобус комнаты.
type LocationState string

const (
	LocationTransit LocationState = "transit"
	LocationArrived LocationState = "arrived"
)

type Room struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	CurrentDestinationID string        `json:"currentDestinationId"`
	LocationState        LocationState `json:"locationState"`
	BusStyle             string        `json:"busStyle"`
	CreatedAt            time.Time     `json:"createdAt"`
}
