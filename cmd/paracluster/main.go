package main

import (
	"paracluster/cmd/handlers"
	"paracluster/internal/logger"
)

func main() {
	logger.Init() // Initialize the logger
	handlers.Execute()
}
