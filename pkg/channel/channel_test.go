package channel

import (
	"testing"

	"github.com/smoglang/gosl/pkg/value"
)

func TestBuffered_SendFillsThenBlocks(t *testing.T) {
	ch := New(2)
	if !ch.TrySend(value.NewInt64(1)) {
		t.Fatalf("expected first send to succeed")
	}
	if !ch.TrySend(value.NewInt64(2)) {
		t.Fatalf("expected second send to succeed")
	}
	if ch.TrySend(value.NewInt64(3)) {
		t.Fatalf("expected third send to report full (false)")
	}
}

func TestUnbuffered_OneSlotHandoff(t *testing.T) {
	ch := New(0)
	if ch.Cap() != 0 {
		t.Fatalf("expected Cap() == 0 for unbuffered channel, got %d", ch.Cap())
	}
	if !ch.TrySend(value.NewInt64(42)) {
		t.Fatalf("expected send into empty unbuffered channel to succeed")
	}
	v, ok, closed := ch.TryRecv()
	if !ok || closed || v.Int64() != 42 {
		t.Fatalf("expected to receive 42, got v=%v ok=%v closed=%v", v, ok, closed)
	}
}

func TestRecvFromClosedEmpty_ReportsClosed(t *testing.T) {
	ch := New(1)
	ch.Close()
	_, ok, closed := ch.TryRecv()
	if ok || !closed {
		t.Fatalf("expected (ok=false, closed=true) from closed empty channel")
	}
}

func TestSendOnClosed_Panics(t *testing.T) {
	ch := New(1)
	ch.Close()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic sending on a closed channel")
		}
	}()
	ch.TrySend(value.NewInt64(1))
}

func TestDoubleClose_Panics(t *testing.T) {
	ch := New(1)
	ch.Close()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on double close")
		}
	}()
	ch.Close()
}
