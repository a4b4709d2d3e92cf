package main

import (
	"github.com/spf13/cobra"

	"github.com/sarchlab/g233/machine"
	"github.com/sarchlab/g233/monitoring"
	"github.com/sarchlab/g233/spi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a machine with the monitoring server attached.",
	Long: "`serve` builds a machine, starts the monitoring server, and " +
		"blocks so the device state can be inspected over HTTP.",
	Run: func(cmd *cobra.Command, args []string) {
		size, _ := cmd.Flags().GetUint64("size")
		port, _ := cmd.Flags().GetInt("port")
		open, _ := cmd.Flags().GetBool("open")

		monitor := monitoring.NewMonitor()
		if port != 0 {
			monitor.WithPortNumber(port)
		}

		m := machine.MakeBuilder().
			WithFlashSize(size).
			WithMonitor(monitor).
			Build("Machine")
		m.Write(spi.RegCR1, 4, spi.CR1Enable|spi.CR1Master)

		monitor.StartServer()
		if open {
			monitor.OpenInBrowser()
		}

		select {}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Uint64("size",
		envUint64("G233_FLASH_SIZE", 2*1024*1024),
		"Flash capacity in bytes")
	serveCmd.Flags().Int("port", 0, "Port for the monitoring server")
	serveCmd.Flags().Bool("open", false, "Open the monitor in a browser")
}
