package ws

import (
	"errors"
	"testing"
)

func TestParseFrame(t *testing.T) {
	f, err := parseFrame([]byte(`{"type":"join","roomId":"r1","passengerId":"p1"}`))
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if j, ok := f.(joinFrame); !ok || j.RoomID != "r1" || j.PassengerID != "p1" {
		t.Fatalf("join: %#v", f)
	}

	f, err = parseFrame([]byte(`{"type":"chat","user":"A","avatar":"🐱","message":"hello"}`))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if c, ok := f.(chatFrame); !ok || c.User != "A" || c.Message != "hello" {
		t.Fatalf("chat: %#v", f)
	}

	f, err = parseFrame([]byte(`{"type":"vote","pollId":"poll","optionId":"opt"}`))
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if v, ok := f.(voteFrame); !ok || v.PollID != "poll" || v.OptionID != "opt" {
		t.Fatalf("vote: %#v", f)
	}
}

func TestParseFrameErrors(t *testing.T) {
	if _, err := parseFrame([]byte(`{"type":"dance"}`)); !errors.Is(err, ErrUnknownFrame) {
		t.Fatalf("unknown type: got %v", err)
	}
	if _, err := parseFrame([]byte(`{}`)); !errors.Is(err, ErrUnknownFrame) {
		t.Fatalf("missing type: got %v", err)
	}
	bad := [][]byte{
		[]byte(`not json`),
		[]byte(`{"type":"join","roomId":42}`),
	}
	for _, b := range bad {
		if _, err := parseFrame(b); err == nil || errors.Is(err, ErrUnknownFrame) {
			t.Fatalf("parseFrame(%s): got %v, want decode error", b, err)
		}
	}
}
