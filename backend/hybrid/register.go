package hybrid

import (
	"hubert.dev/hubert/backend"
	"hubert.dev/hubert/backend/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "hybrid",
		Description: "size-adaptive DHT+CAS router",
		Open: func(cfg registry.Config) (backend.KV, func() error, error) {
			dhtKV, closeDHT, err := registry.Open("mainline", cfg)
			if err != nil {
				return nil, nil, err
			}
			casKV, closeCAS, err := registry.Open("ipfs", cfg)
			if err != nil {
				if closeDHT != nil {
					closeDHT()
				}
				return nil, nil, err
			}

			closeBoth := func() error {
				var err error
				if closeDHT != nil {
					err = closeDHT()
				}
				if closeCAS != nil {
					if casErr := closeCAS(); casErr != nil && err == nil {
						err = casErr
					}
				}
				return err
			}
			return &Router{DHT: dhtKV, CAS: casKV}, closeBoth, nil
		},
	})
}
