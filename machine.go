package pe

import (
	"fmt"
	"sort"
)

// Machine is the COFF target architecture.
type Machine uint16

const (
	ImageFileMachineUnknown     Machine = 0x0
	ImageFileMachineAlpha       Machine = 0x184
	ImageFileMachineAlpha64     Machine = 0x284
	ImageFileMachineAm33        Machine = 0x1d3
	ImageFileMachineAmd64       Machine = 0x8664
	ImageFileMachineArm         Machine = 0x1c0
	ImageFileMachineArm64       Machine = 0xaa64
	ImageFileMachineArm64EC     Machine = 0xa641
	ImageFileMachineArm64X      Machine = 0xa64e
	ImageFileMachineArmNT       Machine = 0x1c4
	ImageFileMachineEbc         Machine = 0xebc
	ImageFileMachineI386        Machine = 0x14c
	ImageFileMachineIa64        Machine = 0x200
	ImageFileMachineLoongArch32 Machine = 0x6232
	ImageFileMachineLoongArch64 Machine = 0x6264
	ImageFileMachineM32R        Machine = 0x9041
	ImageFileMachineMips16      Machine = 0x266
	ImageFileMachineMipsFpu     Machine = 0x366
	ImageFileMachineMipsFpu16   Machine = 0x466
	ImageFileMachinePowerPC     Machine = 0x1f0
	ImageFileMachinePowerPCFP   Machine = 0x1f1
	ImageFileMachineR4000       Machine = 0x166
	ImageFileMachineRiscV32     Machine = 0x5032
	ImageFileMachineRiscV64     Machine = 0x5064
	ImageFileMachineRiscV128    Machine = 0x5128
	ImageFileMachineSh3         Machine = 0x1a2
	ImageFileMachineSh3Dsp      Machine = 0x1a3
	ImageFileMachineSh4         Machine = 0x1a6
	ImageFileMachineSh5         Machine = 0x1a8
	ImageFileMachineThumb       Machine = 0x1c2
	ImageFileMachineWceMipsV2   Machine = 0x169
)

var machineNames = map[Machine]string{
	ImageFileMachineAlpha:       "Alpha AXP",
	ImageFileMachineAlpha64:     "Alpha 64",
	ImageFileMachineAm33:        "Matsushita AM33",
	ImageFileMachineAmd64:       "x64",
	ImageFileMachineArm:         "ARM little endian",
	ImageFileMachineArm64:       "ARM64 little endian",
	ImageFileMachineArm64EC:     "ARM64EC",
	ImageFileMachineArm64X:      "ARM64X",
	ImageFileMachineArmNT:       "ARM Thumb-2 little endian",
	ImageFileMachineEbc:         "EFI byte code",
	ImageFileMachineI386:        "Intel 386",
	ImageFileMachineIa64:        "Intel Itanium",
	ImageFileMachineLoongArch32: "LoongArch 32-bit",
	ImageFileMachineLoongArch64: "LoongArch 64-bit",
	ImageFileMachineM32R:        "Mitsubishi M32R little endian",
	ImageFileMachineMips16:      "MIPS16",
	ImageFileMachineMipsFpu:     "MIPS with FPU",
	ImageFileMachineMipsFpu16:   "MIPS16 with FPU",
	ImageFileMachinePowerPC:     "Power PC little endian",
	ImageFileMachinePowerPCFP:   "Power PC with floating point support",
	ImageFileMachineR4000:       "MIPS little endian",
	ImageFileMachineRiscV32:     "RISC-V 32-bit",
	ImageFileMachineRiscV64:     "RISC-V 64-bit",
	ImageFileMachineRiscV128:    "RISC-V 128-bit",
	ImageFileMachineSh3:         "Hitachi SH3",
	ImageFileMachineSh3Dsp:      "Hitachi SH3 DSP",
	ImageFileMachineSh4:         "Hitachi SH4",
	ImageFileMachineSh5:         "Hitachi SH5",
	ImageFileMachineThumb:       "Thumb",
	ImageFileMachineWceMipsV2:   "MIPS little-endian WCE v2",
}

// ParseMachine maps a raw COFF machine field to a Machine. Values outside the
// PE machine table, IMAGE_FILE_MACHINE_UNKNOWN included, are rejected.
func ParseMachine(v uint16) (Machine, error) {
	m := Machine(v)
	if _, ok := machineNames[m]; !ok {
		return 0, &FormatError{
			Field:  "machine",
			Detail: fmt.Sprintf("value 0x%04x", v),
			Err:    ErrUnknownMachine,
		}
	}
	return m, nil
}

// Machines returns every known machine code in ascending order.
func Machines() []Machine {
	ms := make([]Machine, 0, len(machineNames))
	for m := range machineNames {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
	return ms
}

func (m Machine) String() string {
	if m == ImageFileMachineUnknown {
		return "Unknown"
	}
	if name, ok := machineNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Machine(0x%04x)", uint16(m))
}
