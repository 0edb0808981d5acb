package parser

import (
	"testing"
)

func TestParseValidLine(t *testing.T) {
	rec, ok := Parse("12-02    24:01:13.237   i/flutter ( 666):     my super log ")
	if !ok {
		t.Fatal("expected line to parse")
	}

	if rec.Date != "12-02" {
		t.Errorf("expected date '12-02', got %q", rec.Date)
	}
	if rec.Time != "24:01:13.237" {
		t.Errorf("expected time '24:01:13.237', got %q", rec.Time)
	}
	if rec.Level != "i" {
		t.Errorf("expected level 'i', got %q", rec.Level)
	}
	if rec.Tag != "flutter" {
		t.Errorf("expected tag 'flutter', got %q", rec.Tag)
	}
	if rec.Msg != "my super log" {
		t.Errorf("expected msg 'my super log', got %q", rec.Msg)
	}
}

func TestParseLogcatTimeFormat(t *testing.T) {
	rec, ok := Parse("03-17 16:13:47.624 W/ActivityManager(  1234): Unable to start service Intent { act=x }")
	if !ok {
		t.Fatal("expected line to parse")
	}

	if rec.Level != "W" {
		t.Errorf("expected level W, got %q", rec.Level)
	}
	if rec.Tag != "ActivityManager" {
		t.Errorf("expected tag 'ActivityManager', got %q", rec.Tag)
	}
	// Only the first colon after the parenthesis separates the message.
	if rec.Msg != "Unable to start service Intent { act=x }" {
		t.Errorf("unexpected msg %q", rec.Msg)
	}
}

func TestParseEmptyMessage(t *testing.T) {
	rec, ok := Parse("03-17 16:13:47.624 D/chatty( 42):")
	if !ok {
		t.Fatal("expected line with empty message to parse")
	}
	if rec.Msg != "" {
		t.Errorf("expected empty msg, got %q", rec.Msg)
	}
}

func TestParseTagWithSpaces(t *testing.T) {
	rec, ok := Parse("03-17 16:13:47.624 I/My Tag   ( 42): hi")
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Tag != "My Tag" {
		t.Errorf("expected tag 'My Tag', got %q", rec.Tag)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"date only", "12-02"},
		{"date with trailing spaces", "12-02    "},
		{"time without rest", "12-02 24:01:13.237"},
		{"time with trailing spaces", "12-02 24:01:13.237   "},
		{"no parenthesis", "12-02 24:01:13.237 I/flutter 666: msg"},
		{"no colon", "12-02 24:01:13.237 I/flutter ( 666) msg"},
		{"colon only before parenthesis", "12-02 24:01:13.237 I/flut:ter ( 666) msg"},
		{"no slash", "12-02 24:01:13.237 Iflutter ( 666): msg"},
		{"stack trace continuation", "\tat com.example.Foo.bar(Foo.java:42)"},
		{"beginning of buffer", "--------- beginning of main"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec, ok := Parse(tt.line); ok {
				t.Errorf("expected %q to be rejected, got %+v", tt.line, rec)
			}
		})
	}
}

func TestParseFieldsShareInput(t *testing.T) {
	line := "12-02 24:01:13.237 E/AndroidRuntime( 1): FATAL EXCEPTION: main"
	rec, ok := Parse(line)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if rec.Msg != "FATAL EXCEPTION: main" {
		t.Errorf("unexpected msg %q", rec.Msg)
	}
	if rec.Level != "E" || rec.Tag != "AndroidRuntime" {
		t.Errorf("unexpected level/tag %q/%q", rec.Level, rec.Tag)
	}
}
