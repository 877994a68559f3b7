package llm

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func collectEvents(t *testing.T, stream string) ([]SSEEvent, error) {
	t.Helper()
	parser := NewSSEParser(strings.NewReader(stream))
	var events []SSEEvent
	for {
		event, err := parser.NextEvent()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
}

func TestSSEParser_Events(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []SSEEvent
	}{
		{
			name:   "simple data",
			stream: "data: hello\n\n",
			want:   []SSEEvent{{Data: []byte("hello")}},
		},
		{
			name:   "event type and id",
			stream: "event: message_start\nid: 7\ndata: {}\n\n",
			want:   []SSEEvent{{Event: "message_start", ID: "7", Data: []byte("{}")}},
		},
		{
			name:   "multiple data lines joined by newline",
			stream: "data: a\ndata: b\n\n",
			want:   []SSEEvent{{Data: []byte("a\nb")}},
		},
		{
			name:   "comments, retry and blank lines skipped",
			stream: ": keepalive\n\n\nretry: 100\ndata: x\n\n",
			want:   []SSEEvent{{Data: []byte("x")}},
		},
		{
			name:   "CRLF line endings",
			stream: "event: ping\r\ndata: y\r\n\r\n",
			want:   []SSEEvent{{Event: "ping", Data: []byte("y")}},
		},
		{
			name:   "CRLF events back to back",
			stream: "event: a\r\ndata: 1\r\n\r\nevent: b\r\ndata: 2\r\n\r\n",
			want:   []SSEEvent{{Event: "a", Data: []byte("1")}, {Event: "b", Data: []byte("2")}},
		},
		{
			name:   "lines without colon ignored",
			stream: "garbage\ndata: z\n\n",
			want:   []SSEEvent{{Data: []byte("z")}},
		},
		{
			name:   "empty stream",
			stream: "",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := collectEvents(t, tt.stream)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d events, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i].Event != tt.want[i].Event || got[i].ID != tt.want[i].ID || string(got[i].Data) != string(tt.want[i].Data) {
					t.Errorf("event %d = %+v (data %q), want %+v (data %q)", i, got[i], got[i].Data, tt.want[i], tt.want[i].Data)
				}
			}
		})
	}
}

func TestSSEParser_EventDataSurvivesNextEvent(t *testing.T) {
	parser := NewSSEParser(strings.NewReader("data: first\n\ndata: second\n\n"))

	first, err := parser.NextEvent()
	if err != nil {
		t.Fatalf("NextEvent: %v", err)
	}
	if _, err := parser.NextEvent(); err != nil {
		t.Fatalf("NextEvent: %v", err)
	}
	if string(first.Data) != "first" {
		t.Errorf("first event data was overwritten: %q", first.Data)
	}
}

func TestSSEParser_UnexpectedEOF(t *testing.T) {
	_, err := collectEvents(t, "data: partial")
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF, got %v", err)
	}
}

func TestIsSSEDone(t *testing.T) {
	if !IsSSEDone([]byte("[DONE]")) {
		t.Error("expected [DONE] to be recognised")
	}
	if IsSSEDone([]byte("{}")) {
		t.Error("did not expect {} to be a terminator")
	}
}
