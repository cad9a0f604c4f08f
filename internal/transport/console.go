package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// ConsoleMessenger writes outbound messages to a writer. It backs the demo
// command and gateway-less dry runs; a real chat gateway provides its own
// Messenger.
type ConsoleMessenger struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleMessenger creates a messenger writing to out.
func NewConsoleMessenger(out io.Writer) *ConsoleMessenger {
	return &ConsoleMessenger{out: out}
}

// SendDirect prints a direct message.
func (c *ConsoleMessenger) SendDirect(ctx context.Context, userID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "[DM → %s] %s\n", userID, content)
	return err
}

// SendChannel prints a channel message.
func (c *ConsoleMessenger) SendChannel(ctx context.Context, channelID, content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintf(c.out, "[#%s] %s\n", channelID, content)
	return err
}
