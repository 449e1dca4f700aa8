package main

import (
	"os"
	"solo/cmd"
	_ "time/tzdata" // Feed timestamps need zone data in scratch containers

	log "github.com/sirupsen/logrus"
	_ "golang.org/x/crypto/x509roots/fallback" // We need this to make TLS work in scratch containers
)

func main() {
	if err := cmd.RootApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
