package main

import (
	"os"

	appLog "eventfeed/internal/log"
)

func main() {
	err := newRootCmd().Execute()
	if err != nil {
		appLog.Error("eventfeed failed", err)
	}
	appLog.Sync()
	if err != nil {
		os.Exit(1)
	}
}
