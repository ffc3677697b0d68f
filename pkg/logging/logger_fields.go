package logging

import (
	"time"
)

// Typed field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Campus field helpers keep key names consistent across components
func Component(name string) Field {
	return String("component", name)
}

func NodeID(id string) Field {
	return String("node_id", id)
}

func EdgeID(id string) Field {
	return String("edge_id", id)
}

func Building(code string) Field {
	return String("building", code)
}

func Buildings(codes []string) Field {
	return Field{Key: "buildings", Value: codes}
}

func Fingerprint(fp string) Field {
	return String("fingerprint", fp)
}

func RequestID(id string) Field {
	return String("request_id", id)
}

func Source(src string) Field {
	return String("source", src)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

// Outcome is how a timed operation ended, e.g. "ok" or a route error kind
func Outcome(o string) Field {
	return String("outcome", o)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
