package main

import (
	"github.com/caselight/backend/internal/server"
	"github.com/caselight/backend/internal/util"
	"github.com/caselight/backend/pkg/logger"
	"github.com/caselight/backend/pkg/logger/console"

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
