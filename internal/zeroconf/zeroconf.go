// Package zeroconf registers the tunedeck API as an mDNS/DNS-SD service so
// clients on the LAN can find the daemon without configuration.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// Service manages mDNS service registration.
type Service struct {
	name    string // instance name, e.g. "tunedeck"
	port    int
	version string
	server  *zeroconf.Server
}

// New creates a zeroconf Service advertising the API on the given port.
func New(name string, port int, version string) *Service {
	return &Service{
		name:    name,
		port:    port,
		version: version,
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point the registration is withdrawn.
func (s *Service) Start(ctx context.Context) error {
	txt := []string{
		"version=" + s.version,
		"app=tunedeck",
		"path=/api",
	}

	server, err := zeroconf.Register(
		s.name,           // instance name
		"_tunedeck._tcp", // service type
		"local.",         // domain
		s.port,           // port
		txt,              // TXT records
		nil,              // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	s.server = server
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
