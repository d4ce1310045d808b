package main

import (
	"zoom-lms-api/core/logger"
	"zoom-lms-api/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
