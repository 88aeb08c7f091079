package probe

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"codeberg.org/mutker/geotrackd/internal/model"
)

const (
	powerSupplyDir = "/sys/class/power_supply"
	dmiProductFile = "/sys/devices/virtual/dmi/id/product_name"
	osReleaseFile  = "/etc/os-release"

	connectivityTimeout = 3 * time.Second
)

// statusReader assembles device-status snapshots from the usual Linux
// surfaces. Each reading degrades to a zero value on failure; a snapshot
// never errors as a whole.
type statusReader struct {
	dataDir      string
	connectivity string
}

func newStatusReader(dataDir, connectivity string) *statusReader {
	return &statusReader{dataDir: dataDir, connectivity: connectivity}
}

func (r *statusReader) snapshot(ctx context.Context) model.DeviceStatus {
	return model.DeviceStatus{
		BatteryLevel:     batteryLevel(),
		DeviceModel:      deviceModel(),
		OSVersion:        osVersion(),
		AvailableStorage: availableStorage(r.dataDir),
		NetworkConnected: r.networkConnected(ctx),
		Timestamp:        time.Now().UnixMilli(),
	}
}

// batteryLevel returns the first readable battery capacity, or 0 on
// machines without one.
func batteryLevel() int {
	entries, err := os.ReadDir(powerSupplyDir)
	if err != nil {
		return 0
	}

	for _, entry := range entries {
		raw, err := os.ReadFile(filepath.Join(powerSupplyDir, entry.Name(), "capacity"))
		if err != nil {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSpace(string(raw)))
		if err != nil {
			continue
		}
		return level
	}

	return 0
}

func deviceModel() string {
	raw, err := os.ReadFile(dmiProductFile)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(raw))
}

func osVersion() string {
	file, err := os.Open(osReleaseFile)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if value, ok := strings.CutPrefix(line, "PRETTY_NAME="); ok {
			return strings.Trim(value, `"`)
		}
	}

	return ""
}

func availableStorage(dir string) int64 {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0
	}

	return int64(stat.Bavail) * stat.Bsize
}

func (r *statusReader) networkConnected(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: connectivityTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", r.connectivity)
	if err != nil {
		return false
	}
	conn.Close()

	return true
}
