package main

import (
	"os"

	appLog "pickcal/internal/log"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		appLog.Error("pickcal failed", err)
		os.Exit(1)
	}
}
