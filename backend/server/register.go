package server

import (
	"net"
	"strconv"

	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "server",
		Description: "centralized HTTP dropbox client",
		Open: func(cfg registry.Config) (backend.KV, func() error, error) {
			host := cfg.Host
			if host == "" {
				host = "localhost"
			}
			port := cfg.Port
			if port == 0 {
				port = DefaultPort
			}
			baseURL := "http://" + net.JoinHostPort(host, strconv.Itoa(port))
			return NewClient(baseURL), nil, nil
		},
	})
}
