// Package stdio is the local single-exchange transport: newline-delimited
// JSON request envelopes on stdin, one response envelope per line on stdout.
// It exists so the CLI and local supervisors can talk to the daemon without
// a network listener.
package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// Dispatcher is the router surface the loop needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

// Server reads request lines and writes response lines.
type Server struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// New creates a stdio server.
func New(dispatcher Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{dispatcher: dispatcher, logger: logger}
}

// Serve runs the read loop until EOF or context cancellation. Blank lines
// are skipped; a malformed line produces an error envelope rather than
// terminating the session.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), security.DefaultMaxMessageSize+1)

	enc := json.NewEncoder(out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp := s.serve(ctx, line)
		if err := enc.Encode(resp); err != nil {
			return errors.New("stdio: write failed: " + err.Error())
		}
	}

	if err := scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			resp := protocol.Fail(nil, protocol.InvalidRequest("request line exceeds maximum size"))
			if encErr := enc.Encode(resp); encErr != nil {
				return encErr
			}
			return errors.New("stdio: oversized request line")
		}
		return err
	}
	return nil
}

func (s *Server) serve(ctx context.Context, line []byte) protocol.Response {
	if err := security.ValidateMessageSize(line, security.DefaultMaxMessageSize); err != nil {
		return protocol.Fail(nil, protocol.InvalidRequest(err.Error()))
	}
	if err := security.ValidateJSONDepth(line, security.DefaultMaxJSONDepth); err != nil {
		return protocol.Fail(nil, protocol.InvalidRequest(err.Error()))
	}

	req, perr := protocol.DecodeRequest(line)
	if perr != nil {
		return protocol.Fail(nil, perr)
	}

	return s.dispatcher.Dispatch(ctx, req)
}
