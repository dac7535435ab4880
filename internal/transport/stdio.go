package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tablegate/tablegate/internal/logger"
	"github.com/tablegate/tablegate/internal/mcp"
)

// StdioTransport reads one JSON-RPC message per line from stdin and writes
// one response per line to stdout. The process lifetime is the session
// lifetime; messages are handled strictly sequentially.
type StdioTransport struct {
	handler *mcp.Handler
	in      io.Reader
	out     io.Writer
}

// NewStdioTransport creates a stdio transport over the process streams.
func NewStdioTransport(handler *mcp.Handler) *StdioTransport {
	return &StdioTransport{
		handler: handler,
		in:      os.Stdin,
		out:     os.Stdout,
	}
}

// Run processes stdin until EOF or context cancellation.
func (t *StdioTransport) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		resp := t.handler.DispatchRaw(ctx, []byte(line))
		if resp == nil {
			continue
		}

		data, err := json.Marshal(resp)
		if err != nil {
			logger.Error("Failed to marshal response: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(t.out, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write to stdout: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading stdin: %w", err)
	}
	logger.Info("Received EOF on stdin, shutting down")
	return nil
}
