package ffi

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/smoglang/gosl/pkg/value"
)

// Hasher is a foreign object wrapping a stdlib hash.Hash, grounded on
// pkg/vm/primitives.go's sha256Hash/sha512Hash/md5Hash trio — unlike those
// one-shot functions, Hasher keeps running state across Write calls the way
// a real hash.Hash does, since an FFI object is meant to be a live handle
// rather than a single call.
type Hasher struct {
	algo string
	h    hash.Hash
}

func newHasher(params []value.Value) (value.ForeignBinding, error) {
	algo := "sha256"
	if len(params) > 0 {
		algo = params[0].Str().String()
	}
	if len(params) > 1 {
		return nil, fmt.Errorf("ffi: hash takes at most one construction argument (algorithm name), got %d", len(params))
	}

	h, err := newHashState(algo)
	if err != nil {
		return nil, err
	}
	return &Hasher{algo: algo, h: h}, nil
}

func newHashState(algo string) (hash.Hash, error) {
	switch algo {
	case "sha256":
		return sha256.New(), nil
	case "sha512":
		return sha512.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("ffi: hash: unknown algorithm %q", algo)
	}
}

// MethodNames implements value.ForeignBinding.
func (*Hasher) MethodNames() []string {
	return []string{"Write", "Sum", "Reset"}
}

// Call implements engine.Caller structurally.
func (hr *Hasher) Call(method string, args []value.Value) ([]value.Value, error) {
	switch method {
	case "Write":
		if len(args) != 1 {
			return nil, fmt.Errorf("ffi: Hasher.Write wants (data), got %d args", len(args))
		}
		hr.h.Write([]byte(args[0].Str().String()))
		return nil, nil

	case "Sum":
		if len(args) != 0 {
			return nil, fmt.Errorf("ffi: Hasher.Sum takes no arguments, got %d", len(args))
		}
		return []value.Value{value.NewString(fmt.Sprintf("%x", hr.h.Sum(nil)))}, nil

	case "Reset":
		if len(args) != 0 {
			return nil, fmt.Errorf("ffi: Hasher.Reset takes no arguments, got %d", len(args))
		}
		hr.h.Reset()
		return nil, nil

	default:
		return nil, fmt.Errorf("ffi: Hasher has no method %q", method)
	}
}
