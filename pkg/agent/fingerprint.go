package agent

import (
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
)

// Fingerprinter derives the stable hardware id the agent verifies under:
// SHA-256 over "mac|hostname|cpu". The id is computed once per process;
// hardware identity does not change at runtime.
type Fingerprinter struct {
	once sync.Once
	hwid string
}

// NewFingerprinter creates a fingerprinter with an empty cache.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// HWID returns the cached device fingerprint, computing it on first use.
// Factors that cannot be read degrade to stable placeholders instead of
// failing: an agent on a locked-down host must still be able to verify.
func (f *Fingerprinter) HWID() string {
	f.once.Do(func() {
		combined := strings.Join([]string{primaryMAC(), hostname(), cpuID()}, "|")
		sum := sha256.Sum256([]byte(combined))
		f.hwid = hex.EncodeToString(sum[:])
	})
	return f.hwid
}

const zeroMAC = "00:00:00:00:00:00"

// primaryMAC returns the hardware address of the first up, non-loopback
// interface, falling back to any interface that has one.
func primaryMAC() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return "unknown-mac"
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" && mac != zeroMAC {
			return mac
		}
	}
	for _, iface := range interfaces {
		if mac := iface.HardwareAddr.String(); mac != "" && mac != zeroMAC {
			return mac
		}
	}
	return "unknown-mac"
}

func hostname() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown-host"
	}
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return "unknown-host"
	}
	return host
}

// cpuID reads a processor identifier. Linux exposes a model line in
// /proc/cpuinfo and Windows an environment variable; elsewhere the
// OS/architecture pair stands in.
func cpuID() string {
	switch runtime.GOOS {
	case "linux":
		if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
			for _, line := range strings.Split(string(data), "\n") {
				if strings.HasPrefix(line, "model name") {
					if _, value, ok := strings.Cut(line, ":"); ok {
						return strings.TrimSpace(value)
					}
				}
			}
		}
	case "windows":
		if id := os.Getenv("PROCESSOR_IDENTIFIER"); id != "" {
			return id
		}
	}
	return runtime.GOOS + "-" + runtime.GOARCH
}
