package main

import (
	"os"

	"github.com/olehluchkiv/topicmap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
