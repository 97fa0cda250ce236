package ffi

import (
	"fmt"
	"time"

	"github.com/smoglang/gosl/pkg/value"
)

// Clock is a foreign object wrapping time.Now/time.Format/time.Parse,
// grounded on pkg/vm/primitives.go's dateNow/dateFormat/dateParse trio.
type Clock struct{}

func newClock(params []value.Value) (value.ForeignBinding, error) {
	if len(params) != 0 {
		return nil, fmt.Errorf("ffi: clock takes no construction arguments, got %d", len(params))
	}
	return &Clock{}, nil
}

// MethodNames implements value.ForeignBinding.
func (*Clock) MethodNames() []string {
	return []string{"Now", "Format", "Parse"}
}

// Call implements engine.Caller structurally.
func (c *Clock) Call(method string, args []value.Value) ([]value.Value, error) {
	switch method {
	case "Now":
		return []value.Value{value.NewInt64(time.Now().Unix())}, nil

	case "Format":
		if len(args) != 2 {
			return nil, fmt.Errorf("ffi: Clock.Format wants (timestamp, layout), got %d args", len(args))
		}
		t := time.Unix(args[0].Int64(), 0).UTC()
		return []value.Value{value.NewString(formatTimestamp(t, args[1].Str().String()))}, nil

	case "Parse":
		if len(args) != 2 {
			return nil, fmt.Errorf("ffi: Clock.Parse wants (layout, text), got %d args", len(args))
		}
		t, err := parseTimestamp(args[0].Str().String(), args[1].Str().String())
		if err != nil {
			return nil, fmt.Errorf("ffi: Clock.Parse: %v", err)
		}
		return []value.Value{value.NewInt64(t.Unix())}, nil

	default:
		return nil, fmt.Errorf("ffi: Clock has no method %q", method)
	}
}

// formatTimestamp and parseTimestamp share primitives.go's named-layout
// shorthand (iso8601/date/time/datetime) alongside raw Go reference-time
// layouts, for the same caller convenience dateFormat/dateParse offer.
func formatTimestamp(t time.Time, layout string) string {
	switch layout {
	case "iso8601", "rfc3339":
		return t.Format(time.RFC3339)
	case "date":
		return t.Format("2006-01-02")
	case "time":
		return t.Format("15:04:05")
	case "datetime":
		return t.Format("2006-01-02 15:04:05")
	default:
		return t.Format(layout)
	}
}

func parseTimestamp(layout, text string) (time.Time, error) {
	switch layout {
	case "iso8601", "rfc3339":
		return time.Parse(time.RFC3339, text)
	case "date":
		return time.Parse("2006-01-02", text)
	case "time":
		return time.Parse("15:04:05", text)
	case "datetime":
		return time.Parse("2006-01-02 15:04:05", text)
	default:
		return time.Parse(layout, text)
	}
}
