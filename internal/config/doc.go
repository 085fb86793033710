// Package config provides configuration types and loading for the
// recommendations service.
//
// Configuration is read once at startup from an optional YAML file.
// Values may reference the environment with ${VAR} or ${VAR:-default};
// "$$" yields a literal dollar sign. Fields absent from the file keep
// the values of DefaultConfig.
//
//	cfg, err := config.LoadConfig("recommendations.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
