package dht

import (
	"net"
	"strconv"

	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "mainline",
		Description: "Mainline DHT via BEP44 mutable items",
		Open: func(cfg registry.Config) (backend.KV, func() error, error) {
			var conn net.PacketConn
			if cfg.Port != 0 {
				c, err := net.ListenPacket("udp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
				if err != nil {
					return nil, nil, err
				}
				conn = c
			}
			return NewServer(conn)
		},
	})
}
