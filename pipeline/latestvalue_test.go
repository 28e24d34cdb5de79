package pipeline

import (
	"testing"
	"time"
)

func TestLatestValueSendThenRecv(t *testing.T) {
	lv := NewLatestValue[int]()
	lv.Send(42)

	v, ok := lv.Recv()
	if !ok || v != 42 {
		t.Fatalf("Recv() = (%v, %v), want (42, true)", v, ok)
	}
}

func TestLatestValueOverwritesUnreadValue(t *testing.T) {
	lv := NewLatestValue[int]()
	lv.Send(1)
	lv.Send(2)
	lv.Send(3)

	v, ok := lv.Recv()
	if !ok || v != 3 {
		t.Fatalf("Recv() = (%v, %v), want (3, true) — latest write must win", v, ok)
	}
}

func TestLatestValueRecvBlocksUntilSend(t *testing.T) {
	lv := NewLatestValue[string]()
	done := make(chan string)
	go func() {
		v, _ := lv.Recv()
		done <- v
	}()

	select {
	case <-done:
		t.Fatal("Recv returned before any Send")
	case <-time.After(20 * time.Millisecond):
	}

	lv.Send("hello")
	select {
	case v := <-done:
		if v != "hello" {
			t.Fatalf("got %q, want hello", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never returned after Send")
	}
}

func TestLatestValueCloseUnblocksReceiverWithFalse(t *testing.T) {
	lv := NewLatestValue[int]()
	done := make(chan bool)
	go func() {
		_, ok := lv.Recv()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	lv.Close()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("Recv returned ok=true after Close with no pending value")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv never unblocked after Close")
	}
}

func TestLatestValueSendAfterCloseIsNoop(t *testing.T) {
	lv := NewLatestValue[int]()
	lv.Close()
	lv.Send(5)

	_, ok := lv.Recv()
	if ok {
		t.Fatal("Recv reported a value after Close, want ok=false")
	}
}
