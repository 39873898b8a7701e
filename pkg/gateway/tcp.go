package gateway

import (
	"bufio"
	"context"
	"errors"
	"net"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TCPServer accepts client connections and forwards parsed order commands
// to the sequencer, one goroutine per connection. Each connection can block
// on Publish independently; backpressure never crosses connections.
type TCPServer struct {
	sink              EventSink
	addr              string
	defaultInstrument string
}

func NewTCPServer(sink EventSink, addr, defaultInstrument string) *TCPServer {
	return &TCPServer{
		sink:              sink,
		addr:              addr,
		defaultInstrument: defaultInstrument,
	}
}

// Run listens until the context is cancelled. Client handling errors are
// logged, never fatal.
func (s *TCPServer) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return err
	}
	zap.L().Info("order gateway listening", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			zap.L().Warn("accept failed", zap.Error(err))
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *TCPServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	log := zap.L().With(
		zap.String("conn_id", uuid.New().String()),
		zap.String("remote", conn.RemoteAddr().String()),
	)
	log.Info("client connected")

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		ev, err := ParseLine(line, s.defaultInstrument)
		if err != nil {
			log.Warn("invalid message", zap.String("line", line), zap.Error(err))
			continue
		}
		if err := s.sink.Publish(ev); err != nil {
			log.Warn("publish failed, dropping connection", zap.Error(err))
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Info("client disconnected", zap.Error(err))
		return
	}
	log.Info("client disconnected")
}
