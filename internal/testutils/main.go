package testutils

import (
	"flag"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

// Main runs the package tests; -debug turns on logrus debug output.
func Main(m *testing.M) {
	debug := flag.Bool("debug", false, "run with logrus debug")
	flag.Parse()
	if *debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	os.Exit(m.Run())
}
