package cmd

import (
	"github.com/mpoboas/cosig-raytracing/log"
	"github.com/urfave/cli"
)

var logger = log.New("cosig")

// Apply the global verbosity flags. The most verbose flag wins when both
// are set.
func setupLogging(ctx *cli.Context) {
	switch {
	case ctx.GlobalBool("vv"):
		log.SetLevel(log.Debug)
	case ctx.GlobalBool("v"):
		log.SetLevel(log.Info)
	}
}
