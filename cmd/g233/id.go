package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/g233/machine"
	"github.com/sarchlab/g233/spi"
)

var idCmd = &cobra.Command{
	Use:   "id",
	Short: "Read the JEDEC ID of the attached flash.",
	Long: "`id --size [bytes]` builds a machine with a flash of the given " +
		"capacity and reads its JEDEC ID over the bus.",
	Run: func(cmd *cobra.Command, args []string) {
		size, _ := cmd.Flags().GetUint64("size")

		m := machine.MakeBuilder().
			WithFlashSize(size).
			Build("Machine")
		m.Write(spi.RegCR1, 4, spi.CR1Enable|spi.CR1Master)

		drv := driver{m}
		id := drv.jedecID()

		fmt.Printf("%02X %02X %02X\n", id[0], id[1], id[2])
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
	idCmd.Flags().Uint64("size",
		envUint64("G233_FLASH_SIZE", 2*1024*1024),
		"Flash capacity in bytes")
}
