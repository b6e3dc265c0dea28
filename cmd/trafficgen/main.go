// trafficgen sends a scripted sequence of synthetic chat turns to a local
// VoiceDoc app so its dashboards and monitors have something to show.
//
//	go run ./cmd/trafficgen
//	go run ./cmd/trafficgen -u http://localhost:3000 -v
//	go run ./cmd/trafficgen plan
package main

import (
	"log"
	"os"

	"github.com/aaron/voicedoc-traffic/internal/cli"
)

var version string

func main() {
	cli.SetVersion(version)
	if err := cli.Run(os.Args[1:]); err != nil {
		log.Fatalf("%v", err)
	}
}
