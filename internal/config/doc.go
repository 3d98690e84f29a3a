// Package config provides configuration parsing for inactive projects.
//
// The configuration is stored in inactive.json (or inactive.yaml) at the
// project root. This package handles loading, saving, and validating it.
//
// # Configuration File Structure
//
//	{
//	  "app": {
//	    "package": "./cmd/app",
//	    "title": "Todo"
//	  },
//	  "static": { "dir": "public" },
//	  "dev": {
//	    "port": 3000,
//	    "host": "localhost",
//	    "hotReload": true,
//	    "watch": ["."],
//	    "ignore": ["dist"],
//	    "metrics": true
//	  },
//	  "build": {
//	    "output": "dist",
//	    "stripSymbols": true,
//	    "hash": true
//	  },
//	  "deploy": {
//	    "bucket": "my-site",
//	    "prefix": "app/",
//	    "region": "eu-west-1"
//	  },
//	  "log": { "level": "info", "format": "text" }
//	}
//
// When app.name is empty it defaults to the last element of the module
// path in go.mod, without a major version suffix.
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Port:", cfg.Dev.Port)
package config
