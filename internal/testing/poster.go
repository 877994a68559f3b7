package testing

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/user/thesisherald/internal/platform"
)

// PostedMessage is one chunk received by a RecordingPoster
type PostedMessage struct {
	Dest    platform.Destination
	Content string
}

// OpenedThread records one OpenThread call
type OpenedThread struct {
	Parent platform.Destination
	Header string
	Name   string
	Thread platform.Destination
}

// RecordingPoster is an in-memory platform.Poster. SendErr and ThreadErr,
// when set, are returned instead of recording.
type RecordingPoster struct {
	mu        sync.Mutex
	messages  []PostedMessage
	threads   []OpenedThread
	SendErr   error
	ThreadErr error
}

// NewRecordingPoster creates an empty recording poster
func NewRecordingPoster() *RecordingPoster {
	return &RecordingPoster{}
}

func (p *RecordingPoster) Send(ctx context.Context, dest platform.Destination, chunks []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.SendErr != nil {
		return p.SendErr
	}
	for _, c := range chunks {
		p.messages = append(p.messages, PostedMessage{Dest: dest, Content: c})
	}
	return nil
}

func (p *RecordingPoster) OpenThread(ctx context.Context, channel platform.Destination, header, name string) (platform.Destination, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ThreadErr != nil {
		return platform.Destination{}, p.ThreadErr
	}
	thread := platform.Destination{
		ChannelID:  channel.ChannelID,
		ThreadID:   fmt.Sprintf("thread-%d", len(p.threads)+1),
		ThreadName: name,
	}
	p.threads = append(p.threads, OpenedThread{Parent: channel, Header: header, Name: name, Thread: thread})
	return thread, nil
}

// Messages returns every posted chunk in order
func (p *RecordingPoster) Messages() []PostedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]PostedMessage(nil), p.messages...)
}

// Threads returns every opened thread in order
func (p *RecordingPoster) Threads() []OpenedThread {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]OpenedThread(nil), p.threads...)
}

// ContentsIn returns the chunks posted to the channel or thread of dest
func (p *RecordingPoster) ContentsIn(dest platform.Destination) []string {
	var out []string
	for _, m := range p.Messages() {
		if m.Dest.ThreadID == dest.ThreadID && m.Dest.ChannelID == dest.ChannelID {
			out = append(out, m.Content)
		}
	}
	return out
}

// Text joins every posted chunk with newlines
func (p *RecordingPoster) Text() string {
	var parts []string
	for _, m := range p.Messages() {
		parts = append(parts, m.Content)
	}
	return strings.Join(parts, "\n")
}
