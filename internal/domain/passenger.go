package domain

import "time"

const XPPerLevel = 1000

type Passenger struct {
	ID       string    `json:"id"`
	RoomID   string    `json:"roomId"`
	Name     string    `json:"name"`
	Avatar   string    `json:"avatar"`
	Role     string    `json:"role"`
	XP       int       `json:"xp"`
	Level    int       `json:"level"`
	IsVIP    bool      `json:"isVip"`
	JoinedAt time.Time `json:"joinedAt"`
}

// LevelForXP: floor(xp/1000)+1, отрицательный xp считается нулём.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}
