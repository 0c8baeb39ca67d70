// Package config loads vtree settings.
//
// Settings live in vtree.json (or vtree.yaml) at the project root; the file
// is found by walking up from the working directory. Every field is
// optional.
//
// # Configuration File Structure
//
//	{
//	  "logLevel": "info",
//	  "keyPolicy": "first-match",
//	  "metrics": {
//	    "namespace": "vtree"
//	  },
//	  "live": {
//	    "address": "localhost:7070",
//	    "readTimeout": "10s"
//	  },
//	  "snapshot": {
//	    "dir": ".vtree/snapshots",
//	    "s3": {
//	      "bucket": "my-bucket",
//	      "prefix": "snapshots/",
//	      "region": "eu-west-1"
//	    }
//	  }
//	}
//
// VTREE_LOG_LEVEL and VTREE_ADDR override logLevel and live.address.
//
// # Usage
//
//	cfg, err := config.LoadFromWorkingDir()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println("Address:", cfg.Live.Address)
package config
