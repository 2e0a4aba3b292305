package meeting

import (
	"context"
	"testing"
	"time"

	"github.com/lokutor-ai/meetbot/pkg/meetbot"
)

func TestLoopbackMeetingControllerJoinLeave(t *testing.T) {
	ctrl := NewLoopbackMeetingController(meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}, 16, 4)

	if err := ctrl.Join(context.Background(), "loopback://test", "tester", nil); err != nil {
		t.Fatalf("Join: %v", err)
	}
	participants, err := ctrl.GetParticipants(context.Background())
	if err != nil {
		t.Fatalf("GetParticipants: %v", err)
	}
	if len(participants) != 1 || participants[0] != "tester" {
		t.Fatalf("expected joined participant name, got %+v", participants)
	}

	if err := ctrl.Leave(context.Background()); err != nil {
		t.Fatalf("Leave: %v", err)
	}
}

func TestLoopbackMeetingControllerWriteFeedsReader(t *testing.T) {
	format := meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}
	ctrl := NewLoopbackMeetingController(format, 4, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctrl.Writer.Start(ctx)

	if err := ctrl.Writer.Write(context.Background(), []byte{9, 9, 9, 9}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	readCtx, readCancel := context.WithTimeout(context.Background(), time.Second)
	defer readCancel()
	got, err := ctrl.Reader.Read(readCtx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 4 || got[0] != 9 {
		t.Fatalf("expected loopback to echo written bytes into the reader, got %+v", got)
	}
}

func TestLoopbackMeetingControllerChatHistory(t *testing.T) {
	ctrl := NewLoopbackMeetingController(meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}, 16, 4)

	if err := ctrl.SendChatMessage(context.Background(), "hello"); err != nil {
		t.Fatalf("SendChatMessage: %v", err)
	}
	history, err := ctrl.GetChatHistory(context.Background())
	if err != nil {
		t.Fatalf("GetChatHistory: %v", err)
	}
	if len(history) != 1 || history[0] != "hello" {
		t.Fatalf("expected chat history to record sent message, got %+v", history)
	}
}

func TestLoopbackMeetingControllerMuteUnmute(t *testing.T) {
	ctrl := NewLoopbackMeetingController(meetbot.AudioFormat{SampleRateHz: 8000, ByteDepth: 2}, 16, 4)
	if err := ctrl.Mute(context.Background()); err != nil {
		t.Fatalf("Mute: %v", err)
	}
	if err := ctrl.Unmute(context.Background()); err != nil {
		t.Fatalf("Unmute: %v", err)
	}
}
