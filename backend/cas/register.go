package cas

import (
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "ipfs",
		Description: "content-addressed storage via the local Kubo ipfs CLI",
		Open: func(cfg registry.Config) (backend.KV, func() error, error) {
			d, err := New(Options{Bin: cfg.IPFSBin, Env: cfg.IPFSEnv, GRPCTarget: cfg.GRPCTarget})
			if err != nil {
				return nil, nil, err
			}
			d.PinOnPut = cfg.PinByDefault
			return d, d.Close, nil
		},
	})
}
