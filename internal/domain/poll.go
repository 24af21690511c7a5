package domain

import "time"

type Poll struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	Question  string    `json:"question"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}

type PollOption struct {
	ID            string `json:"id"`
	PollID        string `json:"pollId"`
	Position      int    `json:"position"`
	DestinationID string `json:"destinationId"`
	Text          string `json:"text"`
	Votes         int    `json:"votes"`
}

type PollVote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"pollId"`
	PassengerID string    `json:"passengerId"`
	OptionID    string    `json:"optionId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// PollWithOptions: форма, в которой опрос уходит клиентам (new_poll, active-poll).
type PollWithOptions struct {
	Poll
	Options []PollOption `json:"options"`
}

// TotalVotes суммирует голоса по всем вариантам.
func TotalVotes(options []PollOption) int {
	total := 0
	for _, o := range options {
		total += o.Votes
	}
	return total
}
