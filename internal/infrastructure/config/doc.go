// Package config loads and validates Stockflow Core configuration.
//
// Configuration comes from a YAML file, with STOCKFLOW_* environment
// variables taking precedence for deployment-specific and sensitive
// values. Defaults are filled in before validation so a minimal file
// is enough to start the service.
//
// Security:
//   - Secrets (broker passwords, the JWT secret) belong in environment
//     variables, not the file
//   - Keep the config file at 0600
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Service.Name)
//
// Configuration is read once at startup; there is no hot reload.
package config
