package main

import (
	"flag"
	"fmt"
	"os"

	"gerritwatch/internal/di"
	"gerritwatch/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "c", "", "path to the YAML config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "force debug logging to the console")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
