package main

import (
	"fmt"
	"os"

	"github.com/core-tools/hsu-service-go/pkg/errors"

	flags "github.com/jessevdk/go-flags"
)

const exitInterrupted = 130

type globalOptions struct {
	Root       string `long:"root" short:"r" env:"SERVICE_ROOT" description:"Root directory that relative paths resolve against" default:"."`
	ConfigFile string `long:"config-file" short:"c" description:"Configuration file path (YAML), defaults to <root>/etc/config.yml"`
	LogLevel   string `long:"log-level" short:"l" description:"Log level (debug, info, warn, error)"`
}

var opts globalOptions

func main() {
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Name = "servicectl"
	parser.ShortDescription = "Manage host services"
	registerCommands(parser)

	if _, err := parser.ParseArgs(os.Args[1:]); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if flagsErr, ok := err.(*flags.Error); ok {
		if flagsErr.Type == flags.ErrHelp {
			fmt.Println(flagsErr.Message)
			return 0
		}
		fmt.Fprintf(os.Stderr, "Command line flags parsing failed: %v\n", err)
		return 1
	}
	if errors.IsInterruptedError(err) {
		fmt.Fprintln(os.Stderr, "\nWARNING: Cancelled by user")
		return exitInterrupted
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}
