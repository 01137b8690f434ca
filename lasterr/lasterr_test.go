package lasterr

import (
	"fmt"
	"testing"
)

func TestChannel_Empty(t *testing.T) {
	var c Channel

	if c.Length() != 0 {
		t.Errorf("Length() = %d, want 0", c.Length())
	}
	if got := c.Message(make([]byte, 16)); got != -1 {
		t.Errorf("Message() = %d, want -1 with no error recorded", got)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, want nil", c.Err())
	}
}

func TestChannel_RecordAndRead(t *testing.T) {
	var c Channel
	c.Record(fmt.Errorf("first failure"))

	n := c.Length()
	if n != len("first failure") {
		t.Fatalf("Length() = %d, want %d", n, len("first failure"))
	}

	buf := make([]byte, n)
	if got := c.Message(buf); got != n {
		t.Fatalf("Message() = %d, want %d", got, n)
	}
	if string(buf) != "first failure" {
		t.Errorf("message = %q", buf)
	}

	// Non-destructive read.
	if got := c.Message(buf); got != n {
		t.Errorf("second Message() = %d, want %d", got, n)
	}
}

func TestChannel_Overwrite(t *testing.T) {
	var c Channel
	c.Record(fmt.Errorf("a much longer first failure message"))
	c.Record(fmt.Errorf("short"))

	if c.Length() != len("short") {
		t.Errorf("Length() = %d, want %d", c.Length(), len("short"))
	}
	if c.String() != "short" {
		t.Errorf("String() = %q", c.String())
	}
}

func TestChannel_InsufficientCapacity(t *testing.T) {
	var c Channel
	c.Record(fmt.Errorf("0123456789"))

	if got := c.Message(make([]byte, 4)); got != -1 {
		t.Errorf("Message(short buf) = %d, want -1", got)
	}
	// Exact capacity is enough.
	if got := c.Message(make([]byte, 10)); got != 10 {
		t.Errorf("Message(exact buf) = %d, want 10", got)
	}
}

func TestChannel_RecordNil(t *testing.T) {
	var c Channel
	c.Record(fmt.Errorf("failure"))
	c.Record(nil)

	if c.Err() == nil {
		t.Error("Record(nil) must not clear the slot")
	}
	if c.String() != "failure" {
		t.Errorf("String() = %q, want %q", c.String(), "failure")
	}
}

func TestChannel_Observe(t *testing.T) {
	var c Channel

	err := fmt.Errorf("observed")
	if got := c.Observe(err); got != err {
		t.Errorf("Observe returned %v, want %v", got, err)
	}
	if c.Err() != err {
		t.Error("Observe did not record")
	}

	if got := c.Observe(nil); got != nil {
		t.Errorf("Observe(nil) = %v, want nil", got)
	}
	if c.Err() != err {
		t.Error("Observe(nil) must not clear the slot")
	}
}
