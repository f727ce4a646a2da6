// Package config provides configuration parsing for folio.
//
// The configuration is stored in folio.json at the project root.
// This package handles loading, saving, and validating configuration.
//
// # Configuration File Structure
//
//	{
//	  "server": {
//	    "host": "localhost",
//	    "port": 3000
//	  },
//	  "storage": {
//	    "driver": "sqlite",
//	    "dsn": "folio.db"
//	  },
//	  "auth": {
//	    "minLatency": "800ms",
//	    "maxLatency": "1500ms",
//	    "failureRate": 0.05,
//	    "dashboardPath": "/dashboard",
//	    "loginPath": "/login"
//	  },
//	  "navigation": {
//	    "mobileBreakpoint": 1024,
//	    "defaultItem": "dashboard"
//	  },
//	  "theme": {
//	    "default": "light"
//	  }
//	}
//
// Durations use Go duration syntax ("800ms", "1s").
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Listening on", cfg.Address())
package config
