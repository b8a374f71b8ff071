package main

import (
	"booking-gateway/core/logger"
	"booking-gateway/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Fatal("run server error", "error", err)
	}
}
