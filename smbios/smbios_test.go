package smbios

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darkit/sysinfo/errdefs"
)

// buildStructure 构造一个结构：length 字节的格式化区（含头部）加字符串表。
func buildStructure(typ, length byte, fields map[int]byte, strs ...string) []byte {
	buf := make([]byte, length)
	buf[0] = typ
	buf[1] = length
	for off, v := range fields {
		buf[off] = v
	}
	for _, s := range strs {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	if len(strs) == 0 {
		buf = append(buf, 0)
	}
	return append(buf, 0)
}

func biosFixture(flags byte) []byte {
	return buildStructure(TypeBIOS, 0x18, map[int]byte{
		biosVendor:      1,
		biosVersion:     2,
		biosReleaseDate: 3,
		biosCharExt2:    flags,
		biosMajor:       2,
		biosMinor:       7,
	}, "Vendor", "Ver1", "01/02/2020")
}

func TestExtractString(t *testing.T) {
	section := []byte("Vendor\x00Ver1\x00\x00")
	tests := []struct {
		name    string
		section []byte
		index   uint8
		want    string
		wantErr bool
	}{
		{name: "zero index", section: section, index: 0, want: ""},
		{name: "zero index without table", section: nil, index: 0, want: ""},
		{name: "first", section: section, index: 1, want: "Vendor"},
		{name: "second", section: section, index: 2, want: "Ver1"},
		{name: "terminator segment", section: section, index: 3, want: ""},
		{name: "out of range", section: section, index: 5, wantErr: true},
		{name: "empty table", section: nil, index: 2, wantErr: true},
		{name: "invalid utf8", section: []byte{0xff, 'a', 0, 0}, index: 1, want: "\uFFFDa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractString(tt.section, tt.index)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeBIOS(t *testing.T) {
	info, err := DecodeBIOS(biosFixture(0x08), false)
	require.NoError(t, err)

	assert.Equal(t, BIOSInfo{
		Vendor:                 "Vendor",
		BIOSVersion:            "Ver1",
		BIOSReleaseDate:        "01/02/2020",
		IsVirtualMachine:       true,
		SystemBIOSMajorRelease: "2",
		SystemBIOSMinorRelease: "7",
	}, info)
}

func TestDecodeBIOSVirtualMachineIsFlagOrVerdict(t *testing.T) {
	for _, flags := range []byte{0x00, 0x08, 0xf7, 0xff} {
		for _, hypervisor := range []bool{false, true} {
			info, err := DecodeBIOS(biosFixture(flags), hypervisor)
			require.NoError(t, err)
			want := flags&0x08 != 0 || hypervisor
			assert.Equal(t, want, info.IsVirtualMachine, "flags=%#x hypervisor=%v", flags, hypervisor)
		}
	}
}

// length 0x12 时字符串表从 0x12 开始，0x13 之后的固定偏移落在字符串表内部，按原始字节读取。
func TestDecodeBIOSShortFormattedArea(t *testing.T) {
	buf := make([]byte, 0x12)
	buf[0], buf[1] = TypeBIOS, 0x12
	buf[biosVendor], buf[biosVersion] = 1, 2
	buf = append(buf, "Vendor\x00Ver1\x00\x00"...)

	info, err := DecodeBIOS(buf, false)
	require.NoError(t, err)
	assert.Equal(t, BIOSInfo{
		Vendor:                 "Vendor",
		BIOSVersion:            "Ver1",
		BIOSReleaseDate:        "",
		IsVirtualMachine:       false, // 0x13 = 'e' (0x65)，bit 3 未置位
		SystemBIOSMajorRelease: "110", // 'n'
		SystemBIOSMinorRelease: "100", // 'd'
	}, info)

	// 把 0x13 改写为 0x08 后标志位生效，同时第一个字符串被改写
	buf[biosCharExt2] = 0x08
	info, err = DecodeBIOS(buf, false)
	require.NoError(t, err)
	assert.True(t, info.IsVirtualMachine)
	assert.Equal(t, "V\x08ndor", info.Vendor)
	assert.Equal(t, "Ver1", info.BIOSVersion)

	info, err = DecodeBIOS(buf[:0x15], true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
	assert.Equal(t, BIOSInfo{}, info)
}

func TestDecodeBIOSMalformed(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: nil},
		{name: "header only", buf: []byte{0}},
		{name: "too short", buf: buildStructure(TypeBIOS, 0x10, nil)[:0x10]},
		{name: "length beyond buffer", buf: append([]byte{0, 0x40}, make([]byte, 0x20)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBIOS(tt.buf, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
		})
	}
}

func TestDecodeSystem(t *testing.T) {
	fields := map[int]byte{
		sysManufacturer: 1,
		sysProductName:  2,
		sysSerialNumber: 3,
	}
	for i := 0; i < uuidLen; i++ {
		fields[sysUUID+i] = byte(i + 1)
	}
	buf := buildStructure(TypeSystem, 0x1b, fields, "QEMU", "Standard PC", "SN-001")

	info, err := DecodeSystem(buf)
	require.NoError(t, err)
	assert.Equal(t, SystemInfo{
		Manufacturer: "QEMU",
		ProductName:  "Standard PC",
		SerialNumber: "SN-001",
		UUID:         "01020304-0506-0708-090a-0b0c0d0e0f10",
	}, info)
}

func TestDecodeSystemBadStringIndexDegrades(t *testing.T) {
	buf := buildStructure(TypeSystem, 0x1b, map[int]byte{
		sysManufacturer: 1,
		sysSerialNumber: 9,
	}, "QEMU")

	info, err := DecodeSystem(buf)
	require.NoError(t, err)
	assert.Equal(t, "QEMU", info.Manufacturer)
	assert.Empty(t, info.ProductName)
	assert.Empty(t, info.SerialNumber)
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", info.UUID)
}

func TestDecodeSystemTooShort(t *testing.T) {
	_, err := DecodeSystem(buildStructure(TypeSystem, 0x08, nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
}

func TestFormatUUID(t *testing.T) {
	b := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b}

	first, err := FormatUUID(b)
	require.NoError(t, err)
	second, err := FormatUUID(b)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "deadbeef-0001-0203-0405-060708090a0b", first)

	_, err = FormatUUID(b[:15])
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
}

func TestDecodeEnclosure(t *testing.T) {
	buf := buildStructure(TypeEnclosure, 0x15, map[int]byte{
		encManufacturer: 1,
		encType:         2,
		encVersion:      3,
		encSerialNumber: 4,
		encAssetTag:     0,
	}, "Acme", "Rack Mount Chassis", "1.0", "CH-42")

	info, err := DecodeEnclosure(buf)
	require.NoError(t, err)
	assert.Equal(t, EnclosureInfo{
		Manufacturer:   "Acme",
		EnclosureType:  "Rack Mount Chassis",
		Version:        "1.0",
		SerialNumber:   "CH-42",
		AssetTagNumber: "",
	}, info)
}

func TestDecodeEnclosureTooShort(t *testing.T) {
	_, err := DecodeEnclosure([]byte{3, 4, 0, 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errdefs.ErrMalformedTable))
}
