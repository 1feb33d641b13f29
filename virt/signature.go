package virt

import "strings"

// knownSignatures CPUID leaf 0x40000000 返回的 12 字节厂商签名（EBX, ECX, EDX）
var knownSignatures = map[string]string{
	"VMwareVMware": "VMware",
	"Microsoft Hv": "Microsoft Hyper-V",
	"KVMKVMKVM":    "KVM",
	"XenVMMXenVMM": "Xen",
}

// MatchSignature 返回签名对应的 hypervisor 名称；签名末尾的 NUL 与空格被忽略。
func MatchSignature(sig string) (string, bool) {
	name, ok := knownSignatures[strings.TrimRight(sig, "\x00 ")]
	return name, ok
}
