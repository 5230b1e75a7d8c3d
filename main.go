// main is the entry point of the cecompare CLI.
package main

import (
	"github.com/cecompare/cecompare/cmd"
	"github.com/cecompare/cecompare/internal/contract"
)

func main() {
	if err := cmd.Execute(); err != nil {
		contract.LogFatal("cecompare failed", err)
	}
}
