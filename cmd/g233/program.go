package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/g233/datarecording"
	"github.com/sarchlab/g233/flash"
	"github.com/sarchlab/g233/machine"
	"github.com/sarchlab/g233/sim"
	"github.com/sarchlab/g233/spi"
)

var programCmd = &cobra.Command{
	Use:   "program",
	Short: "Program an image into the flash and verify it.",
	Long: "`program --image [file]` erases the affected sectors, writes the " +
		"image page by page, and reads it back to verify. All traffic goes " +
		"through the controller registers.",
	Run: runProgram,
}

func init() {
	rootCmd.AddCommand(programCmd)

	programCmd.Flags().String("image", "", "Image file to program")
	programCmd.Flags().Uint32("addr", 0, "Flash address to program at")
	programCmd.Flags().String("dump", "", "Write the full array to this file")
	programCmd.Flags().Uint64("size",
		envUint64("G233_FLASH_SIZE", 2*1024*1024),
		"Flash capacity in bytes")
	programCmd.Flags().String("trace",
		envString("G233_TRACE_DB", ""),
		"Record bus traffic into this SQLite database")
	programCmd.Flags().BoolP("verbose", "v", false,
		"Log every register access and transfer")

	err := programCmd.MarkFlagRequired("image")
	if err != nil {
		panic(err)
	}
}

func runProgram(cmd *cobra.Command, args []string) {
	imagePath, _ := cmd.Flags().GetString("image")
	addr, _ := cmd.Flags().GetUint32("addr")
	dumpPath, _ := cmd.Flags().GetString("dump")
	size, _ := cmd.Flags().GetUint64("size")
	tracePath, _ := cmd.Flags().GetString("trace")

	image, err := os.ReadFile(imagePath)
	if err != nil {
		log.Fatalf("Error reading image: %v", err)
	}

	if len(image) == 0 {
		log.Fatalf("Error: image is empty")
	}

	if uint64(addr)+uint64(len(image)) > size {
		log.Fatalf("Error: image does not fit at 0x%06X", addr)
	}

	builder := machine.MakeBuilder().WithFlashSize(size)

	var recorder datarecording.DataRecorder
	if tracePath != "" {
		recorder = datarecording.NewDataRecorder(tracePath)
		builder = builder.WithDataRecorder(recorder)
	}

	m := builder.Build("Machine")

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		logHook := sim.NewPrintLogHook(log.New(os.Stderr, "", 0))
		m.Controller.AcceptHook(logHook)
		m.Flash.AcceptHook(logHook)
	}

	m.Write(spi.RegCR1, 4, spi.CR1Enable|spi.CR1Master)
	drv := driver{m}

	eraseRange(drv, addr, len(image))
	programImage(drv, addr, image)
	verify(drv, addr, image)

	fmt.Printf("Programmed %d bytes at 0x%06X\n", len(image), addr)

	if dumpPath != "" {
		dumpArray(m, dumpPath, size)
	}

	if recorder != nil {
		recorder.Flush()
	}
}

func eraseRange(drv driver, addr uint32, length int) {
	first := addr / flash.SectorSize * flash.SectorSize
	last := (addr + uint32(length) - 1) / flash.SectorSize * flash.SectorSize

	for sector := first; sector <= last; sector += flash.SectorSize {
		drv.sectorErase(sector)
	}
}

func programImage(drv driver, addr uint32, image []byte) {
	for len(image) > 0 {
		// Chunks must not cross a page boundary.
		n := flash.PageSize - int(addr%flash.PageSize)
		if n > len(image) {
			n = len(image)
		}

		drv.pageProgram(addr, image[:n])

		addr += uint32(n)
		image = image[n:]
	}
}

func verify(drv driver, addr uint32, image []byte) {
	readBack := drv.read(addr, len(image))
	if !bytes.Equal(readBack, image) {
		log.Fatalf("Error: read-back does not match the image")
	}
}

func dumpArray(m *machine.Machine, path string, size uint64) {
	data, err := m.Flash.Storage.Read(0, size)
	if err != nil {
		log.Fatalf("Error reading array: %v", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		log.Fatalf("Error writing dump: %v", err)
	}

	fmt.Printf("Dumped %d bytes to %s\n", len(data), path)
}
