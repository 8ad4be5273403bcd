// Package config handles loading and validating the Nova Props Core service
// configuration.
//
// This package manages:
//   - Loading configuration from YAML or TOML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The service configuration covers the process itself (API listener, MQTT,
// InfluxDB, history database, logging). The actuator document edited at
// runtime lives in a separate JSON file named by device.config_path and is
// handled by package subdevice.
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed to the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Device.Name)
package config
