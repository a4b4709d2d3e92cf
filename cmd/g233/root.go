// The g233 command drives the emulated SPI subsystem from the command line.
package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "g233",
	Short: "The g233 tool inspects and programs the emulated SPI flash " +
		"through controller register traffic.",
	Long: `The g233 tool inspects and programs the emulated SPI flash ` +
		`through controller register traffic. It never touches the flash ` +
		`array directly: every operation goes through the same register ` +
		`interface a guest driver would use.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Flag defaults can come from a .env file next to the binary.
	_ = godotenv.Load()
}

func envUint64(key string, def uint64) uint64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}

	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return def
	}

	return v
}

func envString(key, def string) string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}

	return s
}
