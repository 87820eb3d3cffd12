package services

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/huangang/gymdesk/internal/config"
	"github.com/huangang/gymdesk/internal/metrics"
	"gorm.io/gorm"
)

const (
	ReasonOffline            = "offline"
	ReasonBackendUnreachable = "backend_unreachable"
)

var errNoInterface = errors.New("no active network interface")

// NetworkChecker reports whether the host has a usable network.
type NetworkChecker interface {
	Online(ctx context.Context) error
}

// BackendProber runs a lightweight liveness probe against the store.
type BackendProber interface {
	Probe(ctx context.Context) error
}

// InterfaceChecker treats the host as online when at least one non-loopback
// interface is up and has an address.
type InterfaceChecker struct{}

func (InterfaceChecker) Online(ctx context.Context) error {
	ifaces, err := net.Interfaces()
	if err != nil {
		return err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err == nil && len(addrs) > 0 {
			return nil
		}
	}
	return errNoInterface
}

// DBProber pings the database pool.
type DBProber struct {
	DB *gorm.DB
}

func (p DBProber) Probe(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// ConnectivityGuard gates mutating workflows. Passing it does not promise the
// following store call succeeds. A nil guard always passes.
type ConnectivityGuard struct {
	Network NetworkChecker
	Backend BackendProber
	Timeout time.Duration
}

func NewConnectivityGuard(cfg *config.ConnectivityConfig, db *gorm.DB) *ConnectivityGuard {
	if !cfg.Enabled {
		return nil
	}
	g := &ConnectivityGuard{
		Backend: DBProber{DB: db},
		Timeout: cfg.ProbeTimeout(),
	}
	if cfg.CheckInterface {
		g.Network = InterfaceChecker{}
	}
	return g
}

// Check returns a connectivity error when the network is down or the backend
// probe fails. The backend is never contacted while offline.
func (g *ConnectivityGuard) Check(ctx context.Context) error {
	if g == nil {
		return nil
	}

	if g.Network != nil {
		if err := g.Network.Online(ctx); err != nil {
			return connectivityError(ReasonOffline, "you are offline, check your network connection", err)
		}
	}

	if g.Backend != nil {
		probeCtx := ctx
		if g.Timeout > 0 {
			var cancel context.CancelFunc
			probeCtx, cancel = context.WithTimeout(ctx, g.Timeout)
			defer cancel()
		}
		if err := g.Backend.Probe(probeCtx); err != nil {
			return connectivityError(ReasonBackendUnreachable, "cannot reach the server, try again later", err)
		}
	}
	return nil
}

func connectivityError(reason, msg string, err error) *Error {
	metrics.ConnectivityRejections.WithLabelValues(reason).Inc()
	return &Error{Kind: KindConnectivity, Message: msg, Err: err}
}
