package spi

import (
	"bytes"
	"log"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var _ = Describe("SPI Controller", func() {
	var (
		mockCtrl   *gomock.Controller
		peripheral *MockPeripheral
		logBuf     *bytes.Buffer
		controller *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		peripheral = NewMockPeripheral(mockCtrl)
		logBuf = &bytes.Buffer{}

		controller = MakeBuilder().
			WithPeripheral(peripheral).
			WithLogger(log.New(logBuf, "", 0)).
			Build("SPI")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	enable := func() {
		controller.Write(RegCR1, 4, CR1Enable|CR1Master)
	}

	It("should come up with only TX-empty set", func() {
		Expect(controller.Read(RegSR, 4)).To(Equal(uint32(SRTxEmpty)))
		Expect(controller.IRQ().Level()).To(BeFalse())
	})

	It("should store CR1 verbatim", func() {
		controller.Write(RegCR1, 4, 0xDEADBEEF)
		Expect(controller.Read(RegCR1, 4)).To(Equal(uint32(0xDEADBEEF)))
	})

	It("should complete a transfer synchronously", func() {
		enable()
		peripheral.EXPECT().Transfer(byte(0xA5)).Return(byte(0x5A))

		controller.Write(RegDR, 4, 0xA5)

		sr := controller.Read(RegSR, 4)
		Expect(sr & SRTxEmpty).NotTo(BeZero())
		Expect(sr & SRRxNotEmpty).NotTo(BeZero())
		Expect(sr & SRBusy).To(BeZero())
		Expect(controller.Read(RegDR, 4)).To(Equal(uint32(0x5A)))
	})

	It("should only send the low byte of the data register", func() {
		enable()
		peripheral.EXPECT().Transfer(byte(0x34)).Return(byte(0))

		controller.Write(RegDR, 4, 0x1234)
	})

	It("should drop data-register writes while disabled", func() {
		controller.Write(RegDR, 4, 0xA5)

		Expect(controller.Read(RegSR, 4)).To(Equal(uint32(SRTxEmpty)))
	})

	It("should clear RX-not-empty when the data register is read", func() {
		enable()
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x42))

		controller.Write(RegDR, 4, 0x00)
		Expect(controller.Read(RegDR, 4)).To(Equal(uint32(0x42)))

		Expect(controller.Read(RegSR, 4) & SRRxNotEmpty).To(BeZero())
	})

	It("should return stale data when reading the data register twice", func() {
		enable()
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x42))

		controller.Write(RegDR, 4, 0x00)
		controller.Read(RegDR, 4)

		Expect(controller.Read(RegDR, 4)).To(Equal(uint32(0x42)))
	})

	It("should flag overrun when a byte arrives before the previous one is read", func() {
		enable()
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x01))
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x02))

		controller.Write(RegDR, 4, 0x00)
		controller.Write(RegDR, 4, 0x00)

		sr := controller.Read(RegSR, 4)
		Expect(sr & SROverrun).NotTo(BeZero())

		// The flag is sticky: reading DR does not clear it.
		controller.Read(RegDR, 4)
		Expect(controller.Read(RegSR, 4) & SROverrun).NotTo(BeZero())

		// A status-register write clears it.
		controller.Write(RegSR, 4, SROverrun)
		Expect(controller.Read(RegSR, 4) & SROverrun).To(BeZero())
	})

	It("should not flag overrun when every byte is read in time", func() {
		enable()
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0)).Times(2)

		controller.Write(RegDR, 4, 0x00)
		controller.Read(RegDR, 4)
		controller.Write(RegDR, 4, 0x00)

		Expect(controller.Read(RegSR, 4) & SROverrun).To(BeZero())
	})

	It("should latch the received byte even on an overrun", func() {
		enable()
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x01))
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x02))

		controller.Write(RegDR, 4, 0x00)
		controller.Write(RegDR, 4, 0x00)

		Expect(controller.Read(RegDR, 4)).To(Equal(uint32(0x02)))
	})

	It("should assert the interrupt when RX data is pending", func() {
		enable()
		controller.Write(RegCR2, 4, CR2RxNotEmptyIE)
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0))

		controller.Write(RegDR, 4, 0x00)
		Expect(controller.IRQ().Level()).To(BeTrue())

		controller.Read(RegDR, 4)
		// TX-empty interrupts stay disabled, so the line must drop.
		Expect(controller.IRQ().Level()).To(BeFalse())
	})

	It("should assert the interrupt as soon as an enable bit is set", func() {
		// TX-empty holds from reset; enabling its interrupt must assert the
		// line without a new transfer.
		countBefore := controller.InterruptCount()

		controller.Write(RegCR2, 4, CR2TxEmptyIE)

		Expect(controller.IRQ().Level()).To(BeTrue())
		Expect(controller.InterruptCount()).To(Equal(countBefore + 1))
	})

	It("should count every evaluation that finds the line asserted", func() {
		controller.Write(RegCR2, 4, CR2TxEmptyIE)
		countAfterFirst := controller.InterruptCount()

		controller.Write(RegCR2, 4, CR2TxEmptyIE)

		Expect(controller.InterruptCount()).To(Equal(countAfterFirst + 1))
	})

	It("should raise an error interrupt on overrun", func() {
		enable()
		controller.Write(RegCR2, 4, CR2ErrorIE)
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0)).Times(2)

		controller.Write(RegDR, 4, 0x00)
		Expect(controller.IRQ().Level()).To(BeFalse())

		controller.Write(RegDR, 4, 0x00)
		Expect(controller.IRQ().Level()).To(BeTrue())

		controller.Write(RegSR, 4, SROverrun)
		Expect(controller.IRQ().Level()).To(BeFalse())
	})

	It("should drive chip-select lines from CSCTRL", func() {
		Expect(controller.ChipSelect(0).Level()).To(BeTrue())

		controller.Write(RegCSCtrl, 4, 0x11)
		Expect(controller.ChipSelect(0).Level()).To(BeFalse())
		Expect(controller.ChipSelect(1).Level()).To(BeTrue())

		controller.Write(RegCSCtrl, 4, 0x22)
		Expect(controller.ChipSelect(0).Level()).To(BeTrue())
		Expect(controller.ChipSelect(1).Level()).To(BeFalse())
	})

	It("should not activate a line with only the enable bit set", func() {
		controller.Write(RegCSCtrl, 4, 0x01)
		Expect(controller.ChipSelect(0).Level()).To(BeTrue())

		controller.Write(RegCSCtrl, 4, 0x10)
		Expect(controller.ChipSelect(0).Level()).To(BeTrue())
	})

	It("should log reads of bad offsets and return zero", func() {
		Expect(controller.Read(0x40, 4)).To(Equal(uint32(0)))
		Expect(logBuf.String()).To(ContainSubstring("bad offset"))
	})

	It("should log writes of bad offsets and drop them", func() {
		controller.Write(0x40, 4, 0xFFFFFFFF)
		Expect(logBuf.String()).To(ContainSubstring("bad offset"))
	})

	It("should log accesses of the wrong size", func() {
		controller.Read(RegSR, 1)
		Expect(logBuf.String()).To(ContainSubstring("invalid read size"))
	})

	It("should return to the power-on state on reset", func() {
		enable()
		controller.Write(RegCR2, 4, CR2TxEmptyIE)
		controller.Write(RegCSCtrl, 4, 0x11)
		peripheral.EXPECT().Transfer(gomock.Any()).Return(byte(0x99))
		controller.Write(RegDR, 4, 0x55)

		controller.Reset()

		Expect(controller.Read(RegCR1, 4)).To(Equal(uint32(0)))
		Expect(controller.Read(RegCR2, 4)).To(Equal(uint32(0)))
		Expect(controller.Read(RegSR, 4)).To(Equal(uint32(SRTxEmpty)))
		Expect(controller.Read(RegDR, 4)).To(Equal(uint32(0)))
		Expect(controller.Read(RegCSCtrl, 4)).To(Equal(uint32(0)))
		Expect(controller.ChipSelect(0).Level()).To(BeTrue())
		Expect(controller.IRQ().Level()).To(BeFalse())
		Expect(controller.InterruptCount()).To(BeZero())
	})
})

var _ = Describe("Interrupt derivation", func() {
	It("should be a pure function of CR2 and SR", func() {
		Expect(interruptAsserted(0, 0xFF)).To(BeFalse())
		Expect(interruptAsserted(CR2RxNotEmptyIE, SRRxNotEmpty)).To(BeTrue())
		Expect(interruptAsserted(CR2RxNotEmptyIE, SRTxEmpty)).To(BeFalse())
		Expect(interruptAsserted(CR2TxEmptyIE, SRTxEmpty)).To(BeTrue())
		Expect(interruptAsserted(CR2ErrorIE, SROverrun)).To(BeTrue())
		Expect(interruptAsserted(CR2ErrorIE, SRUnderrun)).To(BeTrue())
		Expect(interruptAsserted(CR2ErrorIE, SRRxNotEmpty)).To(BeFalse())
	})
})
