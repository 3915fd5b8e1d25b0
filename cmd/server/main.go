package main

import (
	"github.com/41rumble/great-fire-smyrna-rag/internal/server"
	"github.com/41rumble/great-fire-smyrna-rag/internal/util"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger"
	"github.com/41rumble/great-fire-smyrna-rag/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
