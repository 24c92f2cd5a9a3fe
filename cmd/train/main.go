package main

import (
	"fmt"
	"os"

	"github.com/gonuts/commander"
	"github.com/rs/zerolog"
)

var root = &commander.Command{
	UsageLine: "train <command> [flags]",
	Short:     "trains linear models and k-means clusters over partitioned datasets",
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	root.Subcommands = []*commander.Command{
		svmCmd(),
		regressionCmd(),
		kmeansCmd(),
		poissonCmd(),
	}
}

func main() {
	if err := root.Dispatch(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "**err**: %v\n", err)
		os.Exit(1)
	}
}
