package main

import (
	"github.com/blendpipe/blendpipe/cli"
	"github.com/blendpipe/blendpipe/logger"
)

func main() {
	logger.InitLogger()
	cli.Execute()
}
