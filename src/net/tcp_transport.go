package net

import (
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
)

// keepAlive is the keep-alive period of pooled connections. Connections to a
// component can sit idle between two polls of the scheduler.
const keepAlive = 30 * time.Second

var (
	errNotAdvertisable = errors.New("reply address is not advertisable")
	errNotTCP          = errors.New("reply address is not a TCP address")
)

// tcpStream is the StreamLayer of TCP transports. replyAddr is fixed when the
// listener is bound and is what components use to reach us.
type tcpStream struct {
	listener  net.Listener
	dialer    net.Dialer
	replyAddr string
}

func (t *tcpStream) Dial(address string, timeout time.Duration) (net.Conn, error) {
	d := t.dialer
	d.Timeout = timeout
	return d.Dial("tcp", address)
}

func (t *tcpStream) Accept() (net.Conn, error) { return t.listener.Accept() }

func (t *tcpStream) Close() error { return t.listener.Close() }

func (t *tcpStream) Addr() net.Addr { return t.listener.Addr() }

func (t *tcpStream) AdvertiseAddr() string { return t.replyAddr }

// replyAddress picks the address written in the From field of outgoing
// requests: advertise if set, else the bound address. It must name a concrete
// host, or replies would have nowhere to go.
func replyAddress(bound net.Addr, advertise string) (string, error) {
	addr := bound
	if advertise != "" {
		resolved, err := net.ResolveTCPAddr("tcp", advertise)
		if err != nil {
			return "", err
		}
		addr = resolved
	}

	tcpAddr, ok := addr.(*net.TCPAddr)
	if !ok {
		return "", errNotTCP
	}
	if tcpAddr.IP.IsUnspecified() {
		return "", errNotAdvertisable
	}

	if advertise != "" {
		return advertise, nil
	}
	return tcpAddr.String(), nil
}

// NewTCPTransport binds bindAddr and returns a NetworkTransport over TCP.
// Components reply to advertise, or to the bound address when advertise is
// empty.
func NewTCPTransport(
	bindAddr string,
	advertise string,
	maxPool int,
	timeout time.Duration,
	logger *logrus.Entry,
) (*NetworkTransport, error) {
	list, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}

	replyAddr, err := replyAddress(list.Addr(), advertise)
	if err != nil {
		list.Close()
		return nil, err
	}

	stream := &tcpStream{
		listener:  list,
		dialer:    net.Dialer{KeepAlive: keepAlive},
		replyAddr: replyAddr,
	}

	logger.WithFields(logrus.Fields{
		"bind":  list.Addr().String(),
		"reply": replyAddr,
	}).Debug("TCP transport bound")

	return NewNetworkTransport(stream, maxPool, timeout, logger), nil
}
