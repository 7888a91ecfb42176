package snapdiff

import (
	"log"
	"os"
)

var (
	// Logger is the default package logger
	Logger = log.New(os.Stderr, "snapdiff ", log.LstdFlags)
)

// nopf discards everything.
func nopf(string, ...interface{}) {}
