// Package transport provides the single factory that opens an input or
// output byte-stream endpoint given a transport kind, hiding stream vs.
// datagram networking from the rest of the video relay core.
package transport

import (
	"context"
	"net"

	"github.com/hydrobotics/rov-relay/internal/errors"
	"github.com/hydrobotics/rov-relay/internal/video/types"
)

// DialInput opens the feed's inbound endpoint. For stream transports it
// retries a connection refusal every second until ctx is cancelled; for
// datagram transports it binds once.
func DialInput(ctx context.Context, network types.NetworkType, hostIP string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(hostIP, itoa(port))

	switch network {
	case types.NetworkDatagram:
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			return nil, errors.NewTransportError("transport.resolve_udp", err)
		}
		conn, err := net.ListenUDP("udp", udpAddr)
		if err != nil {
			return nil, errors.NewTransportError("transport.bind_udp", err)
		}
		return conn, nil

	case types.NetworkStream:
		dialer := &net.Dialer{}
		for {
			conn, err := dialer.DialContext(ctx, "tcp", addr)
			if err == nil {
				return conn, nil
			}
			select {
			case <-ctx.Done():
				return nil, errors.NewTransportError("transport.dial_tcp", ctx.Err())
			default:
			}
			if !isRefused(err) {
				return nil, errors.NewTransportError("transport.dial_tcp", err)
			}
			if err := sleepOrDone(ctx, oneSecond); err != nil {
				return nil, errors.NewTransportError("transport.dial_tcp", err)
			}
		}

	default:
		return nil, errors.NewTransportError("transport.dial", errUnsupportedNetwork)
	}
}

// DialOutput opens the feed's outbound sink, used only when a target_ip is
// configured.
func DialOutput(network types.NetworkType, targetIP string, port int) (net.Conn, error) {
	addr := net.JoinHostPort(targetIP, itoa(port))
	switch network {
	case types.NetworkDatagram:
		conn, err := net.Dial("udp", addr)
		if err != nil {
			return nil, errors.NewTransportError("transport.dial_udp_out", err)
		}
		return conn, nil
	case types.NetworkStream:
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, errors.NewTransportError("transport.dial_tcp_out", err)
		}
		return conn, nil
	default:
		return nil, errors.NewTransportError("transport.dial_out", errUnsupportedNetwork)
	}
}
