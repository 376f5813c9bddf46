// Package config loads storefront configuration from the environment.
//
// Each concern has its own section struct with cleanenv tags; the top-level
// StorefrontConfig and RegistrarConfig group them per binary. A .env file next
// to the executable, or in the working directory, is loaded first.
//
//	cfg, err := config.LoadStorefrontConfig()
//	if err != nil {
//		slog.Error("Invalid configuration", "err", err)
//		os.Exit(1)
//	}
//	slog.SetDefault(config.NewLogger(os.Stdout, cfg.Log))
package config
