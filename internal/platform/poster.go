package platform

import "context"

// Destination addresses a channel, or a thread inside it when ThreadID is set
type Destination struct {
	ChannelID  string
	ThreadID   string
	ThreadName string
}

// InThread reports whether d addresses a thread
func (d Destination) InThread() bool {
	return d.ThreadID != ""
}

// Poster delivers already-sized message chunks to a chat platform
type Poster interface {
	// Send posts chunks to dest in order
	Send(ctx context.Context, dest Destination, chunks []string) error
	// OpenThread posts header to channel and starts a thread named name
	// under it
	OpenThread(ctx context.Context, channel Destination, header, name string) (Destination, error)
}
