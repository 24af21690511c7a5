package logger

import "log/slog"

// Ключи атрибутов, общие для всех компонентов: по ним фильтруются логи одной комнаты.
const (
	KeyRoom      = "room"
	KeyPassenger = "passenger"
	KeyConn      = "conn"
	KeyPoll      = "poll"
	KeyErr       = "err"
)

func Room(id string) slog.Attr      { return slog.String(KeyRoom, id) }
func Passenger(id string) slog.Attr { return slog.String(KeyPassenger, id) }
func Conn(id string) slog.Attr      { return slog.String(KeyConn, id) }
func Poll(id string) slog.Attr      { return slog.String(KeyPoll, id) }

// Err: атрибут ошибки; nil превращается в пустую строку, а не в "<nil>".
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyErr, "")
	}
	return slog.String(KeyErr, err.Error())
}
