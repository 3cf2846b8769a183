// Copyright (c) 2022-present, DiceDB contributors
// All rights reserved. Licensed under the BSD 3-Clause License. See LICENSE file in the project root for full license information.

package sevennet

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/sevenDatabase/sevennet/addr"
	"github.com/sevenDatabase/sevennet/async"
	"github.com/sevenDatabase/sevennet/neterr"
	"github.com/sevenDatabase/sevennet/peer"
	"github.com/sevenDatabase/sevennet/verify"
	"github.com/sevenDatabase/sevennet/wire"
)

const protocolVersion = "sevennet/1"

// Message is an envelope received from a connected peer. RequestID is set
// when the sender waits for an answer through Respond.
type Message struct {
	From      uuid.UUID
	RequestID uint64
	Body      *anypb.Any
}

func (m Message) IsRequest() bool {
	return m.RequestID != 0
}

func (m Message) UnmarshalBody(dst proto.Message) error {
	env := &wire.Envelope{Body: m.Body}
	if derr := env.UnmarshalBody(dst); derr != nil {
		return neterr.Classify(derr)
	}
	return nil
}

// Network is a node of the peer-to-peer network. Every error it returns is
// a *neterr.Error.
type Network struct {
	id             uuid.UUID
	privateKey     ed25519.PrivateKey
	trusted        map[uuid.UUID]ed25519.PublicKey
	verifier       *verify.Verifier
	maxMsgSize     int
	dialTimeout    time.Duration
	requestTimeout time.Duration
	inboundSize    int
	dialRetrier    *Retrier
	registerer     prometheus.Registerer
	metrics        *metrics

	peers     *peer.Manager[*peerConn]
	inboundTx *async.Sender[Message]
	inbound   *async.Receiver[Message]
	requestID atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// closeMu orders read loop registration before Close waits on wg.
	closeMu sync.Mutex
	closing bool
}

func New(opts ...Option) (*Network, error) {
	n := &Network{
		trusted:        make(map[uuid.UUID]ed25519.PublicKey),
		maxMsgSize:     defaultMaxMessageSize,
		dialTimeout:    defaultDialTimeout,
		requestTimeout: defaultRequestTimeout,
		inboundSize:    defaultInboundBuffer,
		dialRetrier:    NewRetrier(defaultDialRetries, defaultRetryWindow),
	}

	for _, opt := range opts {
		opt(n)
	}

	if n.dialTimeout <= 0 {
		return nil, neterr.FromKind(neterr.TimerError).WithContextf("invalid dial timeout %s", n.dialTimeout)
	}
	if n.requestTimeout <= 0 {
		return nil, neterr.FromKind(neterr.TimerError).WithContextf("invalid request timeout %s", n.requestTimeout)
	}

	if n.id == uuid.Nil {
		n.id = uuid.New()
	}

	if n.privateKey == nil {
		_, key, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, neterr.FromIO(err).WithContext("generate signing key")
		}
		n.privateKey = key
	}
	if len(n.privateKey) != ed25519.PrivateKeySize {
		return nil, neterr.Wrap(neterr.ParsingError,
			fmt.Errorf("private key is %d bytes, want %d", len(n.privateKey), ed25519.PrivateKeySize))
	}

	if n.inboundSize < 0 {
		n.inboundSize = 0
	}
	if n.registerer == nil {
		n.registerer = prometheus.NewRegistry()
	}

	n.verifier = verify.NewVerifier(n.trusted)
	n.peers = peer.NewManager[*peerConn]()
	n.inboundTx, n.inbound = async.Channel[Message](n.inboundSize)
	n.metrics = newMetrics(n.registerer, func() float64 {
		return float64(n.peers.Len())
	})
	n.ctx, n.cancel = context.WithCancel(context.Background())

	return n, nil
}

func (n *Network) ID() uuid.UUID {
	return n.id
}

func (n *Network) PublicKey() ed25519.PublicKey {
	return n.privateKey.Public().(ed25519.PublicKey)
}

// Peers returns the ids of the connected peers.
func (n *Network) Peers() []uuid.UUID {
	return n.peers.Peers()
}

// Inbound returns the queue of messages and requests sent by peers.
func (n *Network) Inbound() *async.Receiver[Message] {
	return n.inbound
}

// Dial connects to the peer listening on a multiaddr such as
// /ip4/127.0.0.1/tcp/7379 and returns its id once the handshake succeeded.
func (n *Network) Dial(ctx context.Context, address string) (uuid.UUID, error) {
	network, hostport, perr := addr.ParseDialArgs(address)
	if perr != nil {
		return uuid.Nil, n.fail(neterr.Classify(perr).WithContext("dial"))
	}

	pw, err := ExecuteWithResult(ctx, n.dialRetrier, []neterr.Kind{neterr.IoError}, func(ctx context.Context) (*PeerWire, *neterr.Error) {
		return n.dialOnce(ctx, network, hostport)
	})
	if err != nil {
		return uuid.Nil, n.fail(err.WithContextf("dial %s", address))
	}

	id, err := n.handshake(ctx, pw, true)
	if err != nil {
		_ = pw.Close()
		return uuid.Nil, n.fail(err.WithContextf("handshake with %s", address))
	}

	if err := n.register(id, pw); err != nil {
		_ = pw.Close()
		return uuid.Nil, n.fail(err.WithContextf("register %s", address))
	}

	slog.Info("connected to peer", "peer", id, "address", address)
	return id, nil
}

func (n *Network) dialOnce(ctx context.Context, network, address string) (*PeerWire, *neterr.Error) {
	pw, err := async.TimeoutValue(ctx, n.dialTimeout, func(ctx context.Context) (*PeerWire, error) {
		pw, werr := DialPeerWire(ctx, n.maxMsgSize, network, address)
		if werr != nil {
			return nil, werr
		}
		return pw, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return pw, nil
}

// Accept runs the handshake on a connection opened by a remote peer.
func (n *Network) Accept(ctx context.Context, conn net.Conn) (uuid.UUID, error) {
	pw, werr := NewPeerWire(n.maxMsgSize, conn)
	if werr != nil {
		return uuid.Nil, n.fail(neterr.Classify(werr).WithContext("accept"))
	}

	id, err := n.handshake(ctx, pw, false)
	if err != nil {
		_ = pw.Close()
		return uuid.Nil, n.fail(err.WithContextf("handshake with %s", conn.RemoteAddr()))
	}

	if err := n.register(id, pw); err != nil {
		_ = pw.Close()
		return uuid.Nil, n.fail(err.WithContextf("register %s", id))
	}

	return id, nil
}

// Listen opens a TCP listener on a multiaddr. Use Serve to accept peers.
func (n *Network) Listen(address string) (net.Listener, error) {
	network, hostport, perr := addr.ParseDialArgs(address)
	if perr != nil {
		return nil, n.fail(neterr.Classify(perr).WithContext("listen"))
	}

	l, err := net.Listen(network, hostport)
	if err != nil {
		return nil, n.fail(neterr.FromIO(err).WithContextf("listen on %s", address))
	}

	if local, perr := addr.FromNetAddr(l.Addr()); perr == nil {
		slog.Info("listening for peers", "address", local)
	}
	return l, nil
}

// Serve accepts peers on l until ctx ends or l is closed.
func (n *Network) Serve(ctx context.Context, l net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.Close()
	})
	defer stop()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return n.fail(neterr.FromIO(err).WithContext("accept"))
		}

		go func() {
			id, err := n.Accept(ctx, conn)
			if err != nil {
				slog.Warn("inbound handshake failed", "remote", conn.RemoteAddr(), "error", err)
				return
			}
			slog.Info("accepted peer", "peer", id, "remote", conn.RemoteAddr())
		}()
	}
}

// Send delivers msg to a connected peer without waiting for an answer.
func (n *Network) Send(id uuid.UUID, msg proto.Message) error {
	pc, perr := n.peers.Get(id)
	if perr != nil {
		return n.fail(neterr.Classify(perr).WithContext("send"))
	}

	body, eerr := wire.NewBody(msg)
	if eerr != nil {
		return n.fail(neterr.Classify(eerr).WithContextf("send to %s", id))
	}

	if err := n.send(pc.pw, &wire.Envelope{Type: wire.TypeMessage, Body: body}); err != nil {
		return n.fail(classify(err).WithContextf("send to %s", id))
	}
	return nil
}

// Request sends msg and waits for the peer to Respond. The wait is bounded by
// the request timeout and by ctx.
func (n *Network) Request(ctx context.Context, id uuid.UUID, msg proto.Message) (*anypb.Any, error) {
	pc, perr := n.peers.Get(id)
	if perr != nil {
		return nil, n.fail(neterr.Classify(perr).WithContext("request"))
	}

	body, eerr := wire.NewBody(msg)
	if eerr != nil {
		return nil, n.fail(neterr.Classify(eerr).WithContextf("request to %s", id))
	}

	requestID := n.requestID.Add(1)
	tx, rx := async.Oneshot[*wire.Envelope]()
	if !pc.await(requestID, tx) {
		tx.Cancel()
	}
	defer pc.forget(requestID)

	env := &wire.Envelope{Type: wire.TypeRequest, RequestID: requestID, Body: body}
	if err := n.send(pc.pw, env); err != nil {
		return nil, n.fail(classify(err).WithContextf("request %d to %s", requestID, id))
	}

	resp, err := async.TimeoutValue(ctx, n.requestTimeout, rx.Recv)
	if err != nil {
		return nil, n.fail(classify(err).WithContextf("await response %d from %s", requestID, id))
	}
	return resp.Body, nil
}

// Respond answers a request received from Inbound.
func (n *Network) Respond(req Message, msg proto.Message) error {
	if !req.IsRequest() {
		return n.fail(neterr.FromKind(neterr.PeerManagerError).
			WithContextf("respond to %s: message is not a request", req.From))
	}

	pc, perr := n.peers.Get(req.From)
	if perr != nil {
		return n.fail(neterr.Classify(perr).WithContext("respond"))
	}

	body, eerr := wire.NewBody(msg)
	if eerr != nil {
		return n.fail(neterr.Classify(eerr).WithContextf("respond to %s", req.From))
	}

	env := &wire.Envelope{Type: wire.TypeResponse, RequestID: req.RequestID, Body: body}
	if err := n.send(pc.pw, env); err != nil {
		return n.fail(classify(err).WithContextf("respond %d to %s", req.RequestID, req.From))
	}
	return nil
}

// Disconnect closes the connection to a peer. Pending requests to it fail
// with neterr.ChannelCanceled.
func (n *Network) Disconnect(id uuid.UUID) error {
	if perr := n.peers.Remove(id); perr != nil {
		return n.fail(neterr.Classify(perr).WithContext("disconnect"))
	}
	slog.Info("disconnected from peer", "peer", id)
	return nil
}

func (n *Network) Close() error {
	n.closeMu.Lock()
	n.closing = true
	n.closeMu.Unlock()

	n.cancel()
	n.inboundTx.Close()
	perr := n.peers.Close()
	n.wg.Wait()

	if perr != nil {
		return n.fail(neterr.Classify(perr).WithContext("close"))
	}
	return nil
}

func (n *Network) handshake(ctx context.Context, pw *PeerWire, initiator bool) (uuid.UUID, *neterr.Error) {
	remote, err := async.TimeoutValue(ctx, n.dialTimeout, func(ctx context.Context) (uuid.UUID, error) {
		// unblock pending reads and writes once the deadline fires
		stop := context.AfterFunc(ctx, func() {
			_ = pw.SetDeadline(time.Now())
		})
		defer stop()

		if initiator {
			if err := n.sendHello(pw); err != nil {
				return uuid.Nil, err
			}
		}

		remote, err := n.receiveHello(pw)
		if err != nil {
			return uuid.Nil, err
		}

		if !initiator {
			if err := n.sendHello(pw); err != nil {
				return uuid.Nil, err
			}
		}
		return remote, nil
	})
	if err != nil {
		return uuid.Nil, classify(err)
	}

	_ = pw.SetDeadline(time.Time{})
	return remote, nil
}

func (n *Network) sendHello(pw *PeerWire) error {
	body, eerr := wire.NewBody(wrapperspb.String(protocolVersion))
	if eerr != nil {
		return eerr
	}
	return n.send(pw, &wire.Envelope{Type: wire.TypeHello, Body: body})
}

func (n *Network) receiveHello(pw *PeerWire) (uuid.UUID, error) {
	env, err := pw.Receive()
	if err != nil {
		return uuid.Nil, err
	}
	if env.Type != wire.TypeHello {
		return uuid.Nil, &wire.DecodeError{Cause: fmt.Errorf("expected hello, got message type %d", env.Type)}
	}

	remote, err := n.authenticate(env)
	if err != nil {
		return uuid.Nil, err
	}

	version := &wrapperspb.StringValue{}
	if derr := env.UnmarshalBody(version); derr != nil {
		return uuid.Nil, derr
	}
	if version.GetValue() != protocolVersion {
		return uuid.Nil, neterr.Wrap(neterr.ParsingError, fmt.Errorf("unsupported protocol %q", version.GetValue()))
	}

	return remote, nil
}

// send signs env with the local key and writes it. Failures are
// *wire.EncodeError or *wire.WireError.
func (n *Network) send(pw *PeerWire, env *wire.Envelope) error {
	env.From = n.id[:]
	signed, eerr := env.SigningBytes()
	if eerr != nil {
		return eerr
	}
	env.Signature = ed25519.Sign(n.privateKey, signed)

	return pw.Send(env)
}

// authenticate parses the sender id of env and checks its signature.
func (n *Network) authenticate(env *wire.Envelope) (uuid.UUID, error) {
	id, err := uuid.FromBytes(env.From)
	if err != nil {
		return uuid.Nil, neterr.Wrap(neterr.ParsingError, err).WithContext("parse peer id")
	}

	signed, eerr := env.SigningBytes()
	if eerr != nil {
		return uuid.Nil, eerr
	}
	if verr := n.verifier.Verify(id, signed, env.Signature); verr != nil {
		return uuid.Nil, verr
	}
	return id, nil
}

func (n *Network) register(id uuid.UUID, pw *PeerWire) *neterr.Error {
	pc := newPeerConn(id, pw)

	n.closeMu.Lock()
	if n.closing {
		n.closeMu.Unlock()
		return neterr.Classify(&peer.Error{Kind: peer.ErrShutdown, Peer: id})
	}
	n.wg.Add(1)
	n.closeMu.Unlock()

	if perr := n.peers.Add(id, pc); perr != nil {
		n.wg.Done()
		return neterr.Classify(perr)
	}

	go n.readLoop(pc)
	return nil
}

func (n *Network) readLoop(pc *peerConn) {
	defer n.wg.Done()

	for {
		env, err := pc.pw.Receive()
		if err != nil {
			n.drop(pc, err)
			return
		}

		id, err := n.authenticate(env)
		if err == nil && id != pc.id {
			err = &verify.Error{Reason: verify.UnknownAuthor, Author: id}
		}
		if err != nil {
			ne := classify(err).WithContextf("message from %s", pc.id)
			n.metrics.observe(ne)
			slog.Warn("dropping unauthenticated message", "peer", pc.id, "error", ne)
			continue
		}

		switch env.Type {
		case wire.TypeResponse:
			if !pc.resolve(env) {
				slog.Debug("response to unknown request", "peer", pc.id, "request", env.RequestID)
			}
		case wire.TypeMessage, wire.TypeRequest:
			n.deliver(pc, env)
		default:
			slog.Warn("unexpected message", "peer", pc.id, "type", env.Type)
		}
	}
}

func (n *Network) deliver(pc *peerConn, env *wire.Envelope) {
	msg := Message{From: pc.id, Body: env.Body}
	if env.Type == wire.TypeRequest {
		msg.RequestID = env.RequestID
	}

	if serr := n.inboundTx.Send(n.ctx, msg); serr != nil {
		if n.ctx.Err() != nil {
			return
		}
		ne := neterr.Classify(serr).WithContextf("deliver message from %s", pc.id)
		n.metrics.observe(ne)
		slog.Error("could not deliver inbound message", "error", ne)
	}
}

// drop forgets a peer whose connection failed.
func (n *Network) drop(pc *peerConn, err error) {
	n.peers.Detach(pc.id, pc)
	closedLocally := pc.isClosed()
	_ = pc.Close()

	var werr *wire.WireError
	switch {
	case closedLocally || n.ctx.Err() != nil:
		slog.Debug("peer connection closed", "peer", pc.id)
	case errors.As(err, &werr) && werr.Kind == wire.Empty:
		slog.Info("peer disconnected", "peer", pc.id)
	default:
		ne := classify(err).WithContextf("read from %s", pc.id)
		n.metrics.observe(ne)
		slog.Warn("peer connection terminated", "peer", pc.id, "error", ne)
	}
}

func (n *Network) fail(err *neterr.Error) error {
	n.metrics.observe(err)
	return err
}

// classify converts a failure the wire or the async helpers returned as a
// plain error.
func classify(err error) *neterr.Error {
	if ne, ok := neterr.Convert(err); ok {
		return ne
	}
	return neterr.FromIO(err)
}

// peerConn is a registered connection plus its in-flight requests.
type peerConn struct {
	id      uuid.UUID
	pw      *PeerWire
	mu      sync.Mutex
	pending map[uint64]*async.OneshotSender[*wire.Envelope]
	closed  bool
}

func newPeerConn(id uuid.UUID, pw *PeerWire) *peerConn {
	return &peerConn{
		id:      id,
		pw:      pw,
		pending: make(map[uint64]*async.OneshotSender[*wire.Envelope]),
	}
}

// await registers the reply slot of a request. It reports false once the
// connection is closed.
func (c *peerConn) await(requestID uint64, tx *async.OneshotSender[*wire.Envelope]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	c.pending[requestID] = tx
	return true
}

func (c *peerConn) forget(requestID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, requestID)
}

func (c *peerConn) resolve(env *wire.Envelope) bool {
	c.mu.Lock()
	tx, ok := c.pending[env.RequestID]
	delete(c.pending, env.RequestID)
	c.mu.Unlock()

	if !ok {
		return false
	}
	return tx.Send(env)
}

func (c *peerConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// Close cancels the pending requests and closes the wire.
func (c *peerConn) Close() error {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		for _, tx := range c.pending {
			tx.Cancel()
		}
		c.pending = nil
	}
	c.mu.Unlock()

	return c.pw.Close()
}
