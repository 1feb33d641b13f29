// Package smbios 解析单个 SMBIOS/DMI 结构的原始字节。
//
// 每个结构由固定头部、格式化区和尾部字符串表组成。格式化区中的字符串字段只保存
// 字符串表中的 1 起始索引，0 表示"无字符串"。所有偏移访问都做边界检查，越界视为数据错误。
package smbios

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/darkit/sysinfo/errdefs"
)

// 结构类型
const (
	TypeBIOS      uint8 = 0
	TypeSystem    uint8 = 1
	TypeEnclosure uint8 = 3
)

// BIOS (type 0) 字段偏移
const (
	biosVendor      = 0x04
	biosVersion     = 0x05
	biosReleaseDate = 0x08
	biosCharExt2    = 0x13
	biosMajor       = 0x14
	biosMinor       = 0x15

	// biosVirtualBit 特征扩展字节 2 中标记虚拟机的位
	biosVirtualBit = 1 << 3
)

// System (type 1) 字段偏移
const (
	sysManufacturer = 0x04
	sysProductName  = 0x05
	sysSerialNumber = 0x07
	sysUUID         = 0x08
	uuidLen         = 16
)

// Enclosure (type 3) 字段偏移
const (
	encManufacturer = 0x04
	encType         = 0x05
	encVersion      = 0x06
	encSerialNumber = 0x07
	encAssetTag     = 0x08
)

// BIOSInfo BIOS 信息
type BIOSInfo struct {
	Vendor                 string `json:"vendor" yaml:"vendor"`
	BIOSVersion            string `json:"bios_version" yaml:"bios_version"`
	BIOSReleaseDate        string `json:"bios_release_date" yaml:"bios_release_date"`
	IsVirtualMachine       bool   `json:"is_virtual_machine" yaml:"is_virtual_machine"`
	SystemBIOSMajorRelease string `json:"system_bios_major_release" yaml:"system_bios_major_release"`
	SystemBIOSMinorRelease string `json:"system_bios_minor_release" yaml:"system_bios_minor_release"`
}

// SystemInfo 系统（整机）信息
type SystemInfo struct {
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	ProductName  string `json:"product_name" yaml:"product_name"`
	SerialNumber string `json:"serial_number" yaml:"serial_number"`
	UUID         string `json:"uuid" yaml:"uuid"`
}

// EnclosureInfo 机箱信息
type EnclosureInfo struct {
	Manufacturer   string `json:"manufacturer" yaml:"manufacturer"`
	EnclosureType  string `json:"enclosure_type" yaml:"enclosure_type"`
	Version        string `json:"version" yaml:"version"`
	SerialNumber   string `json:"serial_number" yaml:"serial_number"`
	AssetTagNumber string `json:"asset_tag_number" yaml:"asset_tag_number"`
}

// table 单个结构的只读视图
type table struct {
	typ     uint8
	buf     []byte
	strings []byte
}

// newTable 校验头部并切出字符串表。minLen 为该类型读取到的最大偏移 + 1。
func newTable(typ uint8, buf []byte, minLen int) (*table, error) {
	if len(buf) < 2 {
		return nil, errors.Wrapf(errdefs.ErrMalformedTable, "type %d: buffer of %d bytes has no header", typ, len(buf))
	}
	length := int(buf[1])
	if length > len(buf) {
		return nil, errors.Wrapf(errdefs.ErrMalformedTable, "type %d: formatted length %d exceeds buffer of %d bytes", typ, length, len(buf))
	}
	if len(buf) < minLen {
		return nil, errors.Wrapf(errdefs.ErrMalformedTable, "type %d: buffer of %d bytes, need at least %d", typ, len(buf), minLen)
	}
	return &table{typ: typ, buf: buf, strings: buf[length:]}, nil
}

func (t *table) byteAt(off int) (byte, error) {
	if off < 0 || off >= len(t.buf) {
		return 0, errors.Wrapf(errdefs.ErrMalformedTable, "type %d: offset %#x out of range", t.typ, off)
	}
	return t.buf[off], nil
}

// str 读取 off 处的索引并解析字符串；失败时降级为空串。
func (t *table) str(off int) string {
	idx, err := t.byteAt(off)
	if err == nil {
		var s string
		if s, err = ExtractString(t.strings, idx); err == nil {
			return s
		}
	}
	log.Debug().Err(err).Uint8("type", t.typ).Int("offset", off).Msg("smbios string field degraded to empty")
	return ""
}

// ExtractString 返回字符串表中第 index 个（1 起始）以 NUL 分隔的字符串。
// index 为 0 时直接返回空串；越界返回 ErrMalformedTable。非法 UTF-8 序列被替换而非报错。
func ExtractString(section []byte, index uint8) (string, error) {
	if index == 0 {
		return "", nil
	}
	segments := bytes.Split(section, []byte{0})
	if int(index) > len(segments) {
		return "", errors.Wrapf(errdefs.ErrMalformedTable, "string index %d, table has %d entries", index, len(segments))
	}
	return strings.ToValidUTF8(string(segments[index-1]), "\uFFFD"), nil
}

// FormatUUID 把 16 字节按 4-2-2-2-6 分组输出为小写十六进制，不做字节序转换。
func FormatUUID(b []byte) (string, error) {
	u, err := uuid.FromBytes(b)
	if err != nil {
		return "", errors.Wrap(errdefs.Mark(errdefs.ErrMalformedTable, err), "uuid")
	}
	return u.String(), nil
}

// DecodeBIOS 解析 type 0 结构。hypervisor 为独立的虚拟化检测结论，
// IsVirtualMachine 取表内标志位与它的逻辑或。
func DecodeBIOS(buf []byte, hypervisor bool) (BIOSInfo, error) {
	t, err := newTable(TypeBIOS, buf, biosMinor+1)
	if err != nil {
		return BIOSInfo{}, err
	}

	flags, _ := t.byteAt(biosCharExt2)
	major, _ := t.byteAt(biosMajor)
	minor, _ := t.byteAt(biosMinor)

	return BIOSInfo{
		Vendor:                 t.str(biosVendor),
		BIOSVersion:            t.str(biosVersion),
		BIOSReleaseDate:        t.str(biosReleaseDate),
		IsVirtualMachine:       flags&biosVirtualBit != 0 || hypervisor,
		SystemBIOSMajorRelease: strconv.Itoa(int(major)),
		SystemBIOSMinorRelease: strconv.Itoa(int(minor)),
	}, nil
}

// DecodeSystem 解析 type 1 结构。
func DecodeSystem(buf []byte) (SystemInfo, error) {
	t, err := newTable(TypeSystem, buf, sysUUID+uuidLen)
	if err != nil {
		return SystemInfo{}, err
	}

	id, err := FormatUUID(t.buf[sysUUID : sysUUID+uuidLen])
	if err != nil {
		return SystemInfo{}, err
	}

	return SystemInfo{
		Manufacturer: t.str(sysManufacturer),
		ProductName:  t.str(sysProductName),
		SerialNumber: t.str(sysSerialNumber),
		UUID:         id,
	}, nil
}

// DecodeEnclosure 解析 type 3 结构。
func DecodeEnclosure(buf []byte) (EnclosureInfo, error) {
	t, err := newTable(TypeEnclosure, buf, encAssetTag+1)
	if err != nil {
		return EnclosureInfo{}, err
	}

	return EnclosureInfo{
		Manufacturer:   t.str(encManufacturer),
		EnclosureType:  t.str(encType),
		Version:        t.str(encVersion),
		SerialNumber:   t.str(encSerialNumber),
		AssetTagNumber: t.str(encAssetTag),
	}, nil
}

// ReadBIOS 从 src 读取并解析 BIOS 结构。
func ReadBIOS(src Source, hypervisor bool) (BIOSInfo, error) {
	buf, err := src.Table(TypeBIOS)
	if err != nil {
		return BIOSInfo{}, err
	}
	return DecodeBIOS(buf, hypervisor)
}

// ReadSystem 从 src 读取并解析 System 结构。
func ReadSystem(src Source) (SystemInfo, error) {
	buf, err := src.Table(TypeSystem)
	if err != nil {
		return SystemInfo{}, err
	}
	return DecodeSystem(buf)
}

// ReadEnclosure 从 src 读取并解析 Enclosure 结构。
func ReadEnclosure(src Source) (EnclosureInfo, error) {
	buf, err := src.Table(TypeEnclosure)
	if err != nil {
		return EnclosureInfo{}, err
	}
	return DecodeEnclosure(buf)
}
