// cmd/storefrontctl/main.go
package main

import (
	"os"

	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

func main() {
	logx.Init(logx.Development)
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
