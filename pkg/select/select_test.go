package selectstmt

import (
	"math/rand"
	"testing"

	"github.com/smoglang/gosl/pkg/channel"
	"github.com/smoglang/gosl/pkg/value"
)

func TestExecute_PicksReadyRecv(t *testing.T) {
	empty := channel.New(1)
	ready := channel.New(1)
	ready.TrySend(value.NewInt64(9))

	cases := []Case{
		{Kind: CaseRecv, Ch: empty},
		{Kind: CaseRecv, Ch: ready},
	}
	res := Execute(cases, rand.New(rand.NewSource(1)))
	if !res.Matched || res.Chosen != 1 || !res.RecvOk || res.RecvVal.Int64() != 9 {
		t.Fatalf("expected the ready recv case to fire, got %+v", res)
	}
}

func TestExecute_FallsBackToDefault(t *testing.T) {
	empty := channel.New(1)
	cases := []Case{
		{Kind: CaseRecv, Ch: empty},
		{Kind: CaseDefault},
	}
	res := Execute(cases, rand.New(rand.NewSource(1)))
	if !res.Matched || !res.IsDefault {
		t.Fatalf("expected default case to fire, got %+v", res)
	}
}

func TestExecute_BlocksWithNoReadyCaseOrDefault(t *testing.T) {
	empty := channel.New(1)
	cases := []Case{{Kind: CaseRecv, Ch: empty}}
	res := Execute(cases, rand.New(rand.NewSource(1)))
	if res.Matched {
		t.Fatalf("expected no match, got %+v", res)
	}
}
