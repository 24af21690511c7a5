package http

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateRoomRequest struct {
	Name string `json:"name"`
}

type UpdateBusStyleRequest struct {
	BusStyle string `json:"busStyle"`
}

type CreatePassengerRequest struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   string `json:"role"`
	IsVIP  bool   `json:"isVip"`
}

type UpdateXPRequest struct {
	XP *int `json:"xp"`
}

type CreatePollOptionRequest struct {
	DestinationID string `json:"destinationId"`
	Text          string `json:"text"`
}

type CreatePollRequest struct {
	RoomID   string                    `json:"roomId"`
	Question string                    `json:"question"`
	Options  []CreatePollOptionRequest `json:"options"`
}
