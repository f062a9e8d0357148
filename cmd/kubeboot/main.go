package main

import (
	"os"

	"github.com/mensylisir/kubeboot/cmd/kubeboot/cmd"
	"github.com/mensylisir/kubeboot/pkg/logger"
)

func main() {
	defer logger.SyncGlobal()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
