package system

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// MaskExtensions lists the raster formats the decoder understands.
var MaskExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".tif", ".tiff", ".bmp", ".webp"}

func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not read open file limit: %v", err)
		return
	}

	rLimit.Cur = 2048
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	err = syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Printf("[!] Could not raise open file limit: %v", err)
	}
}

// Workers resolves a worker count: an explicit request wins, otherwise the
// number of logical CPUs.
func Workers(requested int) int {
	if requested > 0 {
		return requested
	}
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		n = runtime.NumCPU()
	}
	if n < 1 {
		n = 1
	}
	return n
}

// EstimateBytes is the memory held by count RGBA buffers of the given size.
func EstimateBytes(width, height, count int) uint64 {
	return uint64(width) * uint64(height) * 4 * uint64(count)
}

// CheckMemory fails when count buffers of width x height would not fit in
// the memory currently available to the process.
func CheckMemory(width, height, count int) error {
	vm, err := mem.VirtualMemory()
	if err != nil {
		// Unknown memory stats never block a run.
		return nil
	}
	need := EstimateBytes(width, height, count)
	if need > vm.Available {
		return fmt.Errorf("%dx%d rasters need %d MiB, only %d MiB available",
			width, height, need>>20, vm.Available>>20)
	}
	return nil
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// FindLatestImage returns the most recently modified raster in dir. A non-nil
// keep further restricts the candidate file names.
func FindLatestImage(dir string, keep func(name string) bool) (string, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var latestFile string
	var latestTime time.Time

	for _, f := range files {
		if f.IsDir() || !hasExtension(f.Name(), MaskExtensions) {
			continue
		}
		if keep != nil && !keep(f.Name()) {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(latestTime) {
			latestTime = info.ModTime()
			latestFile = filepath.Join(dir, f.Name())
		}
	}

	if latestFile == "" {
		return "", fmt.Errorf("no images found in %s", dir)
	}

	return latestFile, nil
}

// IsMask reports whether name has a decodable raster extension.
func IsMask(name string) bool {
	return hasExtension(name, MaskExtensions)
}
