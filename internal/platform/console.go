package platform

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsolePoster prints messages to a terminal instead of a chat platform.
// Threads are rendered as indented blocks.
type ConsolePoster struct {
	mu      sync.Mutex
	out     io.Writer
	threads int
}

// NewConsolePoster creates a poster writing to out
func NewConsolePoster(out io.Writer) *ConsolePoster {
	return &ConsolePoster{out: out}
}

func (c *ConsolePoster) Send(ctx context.Context, dest Destination, chunks []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		rendered := styleMessage.Render(chunk)
		if dest.InThread() {
			rendered = styleThreadMessage.Render(rendered)
		}
		if _, err := fmt.Fprintln(c.out, rendered); err != nil {
			return err
		}
		fmt.Fprintln(c.out)
	}
	return nil
}

func (c *ConsolePoster) OpenThread(ctx context.Context, channel Destination, header, name string) (Destination, error) {
	if err := ctx.Err(); err != nil {
		return Destination{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.threads++
	if header != "" {
		fmt.Fprintln(c.out, styleHeader.Render(header))
	}
	if _, err := fmt.Fprintf(c.out, "%s %s\n\n", styleThread.Render("🧵 "+name), styleMuted.Render("(thread)")); err != nil {
		return Destination{}, err
	}
	return Destination{
		ChannelID:  channel.ChannelID,
		ThreadID:   fmt.Sprintf("console-%d", c.threads),
		ThreadName: name,
	}, nil
}
