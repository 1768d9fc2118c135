package core

import (
	"os"
	"strconv"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the daemon's YAML-loaded configuration, following the
// teacher's core.Config / toolutils.ReadYaml convention.
type Config struct {
	Core  CoreConfig  `yaml:"core"`
	Faces FacesConfig `yaml:"faces"`
	Store StoreConfig `yaml:"store"`
}

type CoreConfig struct {
	BaseDir      string `yaml:"-"` // set to the config file's directory at load time, not from YAML
	CpuProfile   string `yaml:"cpu_profile"`
	MemProfile   string `yaml:"mem_profile"`
	BlockProfile string `yaml:"block_profile"`
	LogLevel     string `yaml:"log_level"`
}

type FacesConfig struct {
	// LocalSockName overrides the default ${TMPDIR}/.ccnd.sock IPC
	// listener path (spec.md §6); CCN_LOCAL_SOCKNAME, when set, takes
	// precedence over it (ApplyEnv).
	LocalSockName string `yaml:"local_sock_name"`
	// UDPPort is the base UDP port and IPC-socket suffix (CCN_LOCAL_PORT).
	UDPPort int `yaml:"udp_port"`
	// NonLocalUDP, when true, binds UDP to all interfaces (CCN_NONLOCAL_UDP).
	NonLocalUDP bool `yaml:"nonlocal_udp"`
	// UDPLifetime is loaded from YAML but not read by the reaper, which
	// retires idle datagram faces after two inactivity passes regardless
	// of this value.
	UDPLifetime time.Duration `yaml:"udp_lifetime"`
}

type StoreConfig struct {
	// Capacity is the content store's soft entry cap (CCND_CAP).
	Capacity int `yaml:"capacity"`
	// MTU is the target byte budget for interest-stuffing (CCND_MTU).
	MTU int `yaml:"mtu"`
}

// DefaultConfig returns the configuration a freshly started daemon uses
// before any YAML file or environment variable is applied.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{
			LogLevel: "INFO",
		},
		Faces: FacesConfig{
			UDPPort:     4485,
			UDPLifetime: 3 * time.Minute,
		},
		Store: StoreConfig{
			Capacity: 4000,
			MTU:      1400,
		},
	}
}

// ReadYaml loads a YAML config file into dst, following the teacher's
// toolutils.ReadYaml helper.
func ReadYaml(dst any, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, dst)
}

// ApplyEnv overlays the environment variables from spec.md §6 onto cfg,
// env taking precedence over whatever the YAML file set.
func (cfg *Config) ApplyEnv() {
	if v := os.Getenv("CCN_LOCAL_SOCKNAME"); v != "" {
		cfg.Faces.LocalSockName = v
	}
	if v := os.Getenv("CCN_LOCAL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Faces.UDPPort = port
		}
	}
	if v := os.Getenv("CCN_NONLOCAL_UDP"); v != "" {
		cfg.Faces.NonLocalUDP = true
	}
	if v := os.Getenv("CCND_DEBUG"); v != "" {
		if mask, err := strconv.ParseUint(v, 0, 64); err == nil {
			debugFlags = DebugFlags(mask)
		}
	}
	if v := os.Getenv("CCND_CAP"); v != "" {
		if cap, err := strconv.Atoi(v); err == nil {
			cfg.Store.Capacity = cap
		}
	}
	if v := os.Getenv("CCND_MTU"); v != "" {
		if mtu, err := strconv.Atoi(v); err == nil {
			cfg.Store.MTU = mtu
		}
	}
}

// DefaultSockName returns ${TMPDIR}/.ccnd.sock[.port] the way spec.md §6
// specifies, honoring an explicit override.
func (cfg *Config) DefaultSockName() string {
	if cfg.Faces.LocalSockName != "" {
		return cfg.Faces.LocalSockName
	}
	tmpdir := os.Getenv("TMPDIR")
	if tmpdir == "" {
		tmpdir = "/tmp"
	}
	name := tmpdir + "/.ccnd.sock"
	if cfg.Faces.UDPPort != 0 && cfg.Faces.UDPPort != 4485 {
		name += "." + strconv.Itoa(cfg.Faces.UDPPort)
	}
	return name
}

// DebugFlags is a per-subsystem trace bitmask (CCND_DEBUG), following
// original_source's finer-grained debug flags rather than a single on/off
// switch (SPEC_FULL.md §3).
type DebugFlags uint64

const (
	DebugInterest DebugFlags = 1 << iota
	DebugContent
	DebugMatch
	DebugFace
)

var debugFlags DebugFlags

// DebugEnabled reports whether a subsystem's trace flag is set.
func DebugEnabled(flag DebugFlags) bool {
	return debugFlags&flag != 0
}
