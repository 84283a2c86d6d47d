// Package sideband implements the side-band demultiplexer: it
// splits a pkt-line stream into channels (pack data, progress, error) once
// side-band-64k has been negotiated.
package sideband

import (
	"fmt"

	"github.com/dish59742/gitwire/pktline"
)

// Channel identifies a side-band-64k payload prefix byte.
type Channel byte

const (
	// PackData carries raw pack bytes.
	PackData Channel = 1
	// Progress carries progress/diagnostic text, best-effort.
	Progress Channel = 2
	// Error carries a fatal error message; not produced by all servers.
	Error Channel = 3
)

// Handler processes one channel's payloads. Discard is the handler used to
// silently drop a channel's data (e.g. progress when the caller gave no
// progress sink).
type Handler func(payload []byte) error

// Discard is the sentinel handler that drops payloads.
func Discard(payload []byte) error { return nil }

// FatalChannelError wraps a payload received on Channel.Error, which
// terminates the conversation.
type FatalChannelError struct {
	Message string
}

func (e *FatalChannelError) Error() string {
	return fmt.Sprintf("sideband: fatal error from server: %s", e.Message)
}

// Demux consumes pkt-lines from s until flush (or error), dispatching each
// payload's body to the handler registered for its leading channel byte.
// An unknown channel byte is a fatal pktline.ErrProtocol. A handler mapped
// to Discard silently drops the payload.
func Demux(s *pktline.Scanner, handlers map[Channel]Handler) error {
	for s.Scan() {
		payload := s.Bytes()
		if len(payload) == 0 {
			return fmt.Errorf("%w: empty side-band payload, missing channel byte", pktline.ErrProtocol)
		}

		ch := Channel(payload[0])
		body := payload[1:]

		if ch == Error {
			return &FatalChannelError{Message: string(body)}
		}

		handler, ok := handlers[ch]
		if !ok {
			return fmt.Errorf("%w: unknown side-band channel %d", pktline.ErrProtocol, ch)
		}
		if err := handler(body); err != nil {
			return err
		}
	}
	return s.Err()
}
