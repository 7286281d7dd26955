package screensaver

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/hashicorp/go-hclog"
)

// Remote key-change notification endpoint of the account sync client.
const (
	RemotePath      = dbus.ObjectPath("/org/kylinssoclient/path")
	RemoteInterface = "org.freedesktop.kylinssoclient.interface"
	RemoteMember    = "keyChanged"

	// RemoteScreensaverKey is the synced key that concerns this panel.
	RemoteScreensaverKey = "ukui-screensaver"
)

// RemoteNotifier receives keyChanged signals from the session bus.
type RemoteNotifier struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	logger  hclog.Logger
}

// ConnectRemote subscribes to keyChanged on the session bus.
func ConnectRemote(logger hclog.Logger) (*RemoteNotifier, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return newRemoteNotifier(conn, logger)
}

func newRemoteNotifier(conn *dbus.Conn, logger hclog.Logger) (*RemoteNotifier, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(RemotePath),
		dbus.WithMatchInterface(RemoteInterface),
		dbus.WithMatchMember(RemoteMember),
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to subscribe to %s.%s: %w", RemoteInterface, RemoteMember, err)
	}

	r := &RemoteNotifier{
		conn:    conn,
		signals: make(chan *dbus.Signal, 16),
		logger:  logger,
	}
	conn.Signal(r.signals)
	return r, nil
}

// Run hands every changed key to handle through post until ctx is done.
func (r *RemoteNotifier) Run(ctx context.Context, post func(func()) bool, handle func(key string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case sig, ok := <-r.signals:
			if !ok {
				return nil
			}
			key, ok := keyFromSignal(sig)
			if !ok {
				continue
			}
			r.logger.Debug("remote key changed", "key", key)
			post(func() { handle(key) })
		}
	}
}

// Close unsubscribes and closes the bus connection.
func (r *RemoteNotifier) Close() error {
	r.conn.RemoveSignal(r.signals)
	return r.conn.Close()
}

func keyFromSignal(sig *dbus.Signal) (string, bool) {
	if sig == nil || sig.Path != RemotePath || sig.Name != RemoteInterface+"."+RemoteMember {
		return "", false
	}
	if len(sig.Body) == 0 {
		return "", false
	}
	key, ok := sig.Body[0].(string)
	return key, ok
}
