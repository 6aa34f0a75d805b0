package command

import (
	"testing"
	"time"

	"github.com/akashmaji946/respkv/internal/resp"
)

func bulkArray(parts ...string) resp.Value {
	elems := make([]resp.Value, len(parts))
	for i, p := range parts {
		elems[i] = resp.NewBulkString([]byte(p))
	}
	return resp.NewArray(elems)
}

func TestParsePing(t *testing.T) {
	cmd, err := Parse(bulkArray("PING"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Kind != Ping {
		t.Fatalf("got kind %v, want Ping", cmd.Kind)
	}
}

func TestParseEcho(t *testing.T) {
	cmd, err := Parse(bulkArray("echo", "hello"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Kind != Echo || string(cmd.Value) != "hello" {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseGetMissingArg(t *testing.T) {
	_, err := Parse(bulkArray("GET"))
	if err == nil {
		t.Fatal("expected error for missing GET key")
	}
}

func TestParseSetNoTTL(t *testing.T) {
	cmd, err := Parse(bulkArray("SET", "k", "v"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Kind != Set || string(cmd.Key) != "k" || string(cmd.Value) != "v" || cmd.HasTTL {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseSetWithEX(t *testing.T) {
	cmd, err := Parse(bulkArray("SET", "k", "v", "EX", "10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.HasTTL || cmd.TTL != 10*time.Second {
		t.Fatalf("got TTL %v, want 10s", cmd.TTL)
	}
}

func TestParseSetWithPX(t *testing.T) {
	cmd, err := Parse(bulkArray("SET", "k", "v", "PX", "50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmd.HasTTL || cmd.TTL != 50*time.Millisecond {
		t.Fatalf("got TTL %v, want 50ms", cmd.TTL)
	}
}

func TestParseSetLastTTLWins(t *testing.T) {
	cmd, err := Parse(bulkArray("SET", "k", "v", "EX", "10", "PX", "5000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.TTL != 5000*time.Millisecond {
		t.Fatalf("got TTL %v, want 5000ms (last option should win)", cmd.TTL)
	}
}

func TestParseSetUnknownOption(t *testing.T) {
	_, err := Parse(bulkArray("SET", "k", "v", "XX", "10"))
	if err == nil {
		t.Fatal("expected error for unknown SET option")
	}
}

func TestParseSetUnparsableDuration(t *testing.T) {
	_, err := Parse(bulkArray("SET", "k", "v", "EX", "notanumber"))
	if err == nil {
		t.Fatal("expected error for unparsable duration")
	}
}

func TestParseRPush(t *testing.T) {
	cmd, err := Parse(bulkArray("RPUSH", "L", "a", "b", "c"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Kind != RPush || string(cmd.Key) != "L" || len(cmd.Elements) != 3 {
		t.Fatalf("got %+v", cmd)
	}
}

func TestParseRPushEmptyElements(t *testing.T) {
	_, err := Parse(bulkArray("RPUSH", "L"))
	if err == nil {
		t.Fatal("expected error for RPUSH with no elements")
	}
}

func TestParseUnsupportedCommand(t *testing.T) {
	_, err := Parse(bulkArray("DEL", "k"))
	if err == nil {
		t.Fatal("expected error for unsupported command")
	}
}

func TestParseNotAnArray(t *testing.T) {
	_, err := Parse(resp.NewSimpleString("PING"))
	if err == nil {
		t.Fatal("expected error when outer value is not an array")
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	cmd, err := Parse(bulkArray("PiNg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Kind != Ping {
		t.Fatalf("got kind %v, want Ping", cmd.Kind)
	}
}
