package service

import "github.com/Msaabiam/Global-Bus/internal/domain"

// WinnerPolicy выбирает победивший вариант. options упорядочены по position.
// Возвращает индекс в options или -1, если вариантов нет.
type WinnerPolicy func(options []domain.PollOption) int

// FirstMax: вариант с максимумом голосов; при ничьей побеждает меньший position.
func FirstMax(options []domain.PollOption) int {
	best := -1
	for i, o := range options {
		if best < 0 || o.Votes > options[best].Votes {
			best = i
		}
	}
	return best
}

// LastMax: как FirstMax, но при ничьей побеждает больший position.
func LastMax(options []domain.PollOption) int {
	best := -1
	for i, o := range options {
		if best < 0 || o.Votes >= options[best].Votes {
			best = i
		}
	}
	return best
}

// WinnerPolicyByName: "first_max" (по умолчанию) или "last_max".
func WinnerPolicyByName(name string) (WinnerPolicy, bool) {
	switch name {
	case "", "first_max":
		return FirstMax, true
	case "last_max":
		return LastMax, true
	}
	return nil, false
}
