package sysinfo

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/darkit/sysinfo/disk"
	"github.com/darkit/sysinfo/smbios"
	"github.com/darkit/sysinfo/virt"
)

// 以下变量便于测试替换
var (
	rootDiskSerial = disk.RootSerialNumber
	macAddresses   = listMACAddresses
	osRelease      = readOSRelease
	unameText      = cachedUname
)

// Collector 按配置采集主机信息。Collector 不持有可变状态，可以并发使用。
type Collector struct {
	cfg      Config
	detector *virt.Detector
	tables   smbios.Source
}

// NewCollector 创建 Collector，cfg 为 nil 时使用默认配置。
func NewCollector(cfg *Config) (*Collector, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var tables smbios.Source = smbios.SysfsSource{Root: cfg.HostRoot}
	if cfg.SMBIOSStreamFallback {
		tables = smbios.Fallback(tables, smbios.NewStreamSource(cfg.HostRoot))
	}

	return &Collector{
		cfg:      *cfg,
		detector: virt.New(virt.WithRoot(cfg.HostRoot), virt.WithoutProbes(cfg.DisabledProbes...)),
		tables:   tables,
	}, nil
}

// group 非并行模式下限制为一次只跑一个任务
func (c *Collector) group(ctx context.Context) (*errgroup.Group, context.Context) {
	g, ctx := errgroup.WithContext(ctx)
	if !c.cfg.Parallel {
		g.SetLimit(1)
	}
	return g, ctx
}

// Hardware 采集硬件快照。除 MAC 地址枚举外，任何一项失败都降级为默认值。
func (c *Collector) Hardware(ctx context.Context) (*HardwareInfo, error) {
	hw := &HardwareInfo{MACAddresses: []string{}}
	g, ctx := c.group(ctx)

	// BIOS 的虚拟机标志依赖判定结果，两者在同一个任务里按顺序执行
	g.Go(func() error {
		hw.CPUIsVirtual = c.detector.Detect()
		bios, err := smbios.ReadBIOS(c.tables, hw.CPUIsVirtual)
		if err != nil {
			log.Debug().Err(err).Msg("bios table unavailable, using defaults")
			bios = smbios.BIOSInfo{IsVirtualMachine: hw.CPUIsVirtual}
		}
		hw.BIOSInfo = bios
		return nil
	})
	g.Go(func() error {
		sys, err := smbios.ReadSystem(c.tables)
		if err != nil {
			log.Debug().Err(err).Msg("system table unavailable, using defaults")
		}
		hw.SystemInfo = sys
		return nil
	})
	g.Go(func() error {
		enc, err := smbios.ReadEnclosure(c.tables)
		if err != nil {
			log.Debug().Err(err).Msg("enclosure table unavailable, using defaults")
		}
		hw.EnclosureInfo = enc
		return nil
	})
	g.Go(func() error {
		serial, err := rootDiskSerial(c.cfg.HostRoot)
		if err != nil {
			log.Debug().Err(err).Msg("disk serial unavailable")
		}
		hw.DiskSerialNumber = serial
		return nil
	})
	g.Go(func() error {
		macs, err := macAddresses(ctx)
		if err != nil {
			return err
		}
		hw.MACAddresses = macs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hw, nil
}

// Software 采集软件快照，读取失败的字段为空串。
func (c *Collector) Software(_ context.Context) *SoftwareInfo {
	release, err := osRelease(c.cfg.HostRoot)
	if err != nil {
		log.Debug().Err(err).Msg("os-release unavailable")
	}
	uname, err := unameText()
	if err != nil {
		log.Debug().Err(err).Msg("uname unavailable")
	}
	return &SoftwareInfo{OSRelease: release, Uname: uname}
}

// Machine 采集完整报告
func (c *Collector) Machine(ctx context.Context) (*MachineInfo, error) {
	var (
		hw *HardwareInfo
		sw *SoftwareInfo
	)
	g, ctx := c.group(ctx)
	g.Go(func() (err error) {
		hw, err = c.Hardware(ctx)
		return err
	})
	g.Go(func() error {
		sw = c.Software(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &MachineInfo{Hardware: *hw, Software: *sw}, nil
}

// Virtualization 执行全部虚拟化探测并返回每一项的结果，用于诊断。
func (c *Collector) Virtualization() []virt.Observation {
	return c.detector.Evaluate()
}

// GetMachineInfo 使用默认配置采集完整报告
func GetMachineInfo() (*MachineInfo, error) {
	c, err := NewCollector(nil)
	if err != nil {
		return nil, err
	}
	return c.Machine(context.Background())
}

// GetHardwareInfo 使用默认配置采集硬件快照
func GetHardwareInfo() (*HardwareInfo, error) {
	c, err := NewCollector(nil)
	if err != nil {
		return nil, err
	}
	return c.Hardware(context.Background())
}

// GetSoftwareInfo 使用默认配置采集软件快照
func GetSoftwareInfo() *SoftwareInfo {
	c, _ := NewCollector(nil)
	return c.Software(context.Background())
}
