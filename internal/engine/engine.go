// Package engine hosts the inference backends behind the translate.Engine
// boundary. The numeric forward pass is an external collaborator: a native
// backend registers itself via RegisterNative, and Load falls back to the
// deterministic stub when none is present.
package engine

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/23skdu/longbow-fletcher/internal/logger"
	"github.com/23skdu/longbow-fletcher/internal/translate"
)

// DefaultComputeThreads is the numeric threading default applied when Init
// is never called or called with a non-positive value.
const DefaultComputeThreads = 4

var (
	initOnce       sync.Once
	computeThreads atomic.Int32
)

// Init configures engine-internal numeric threading once per process. It
// must run before any pool is constructed; later calls are no-ops and do not
// affect already-constructed engines.
func Init(numComputeThreads int) {
	initOnce.Do(func() {
		if numComputeThreads < 1 {
			numComputeThreads = DefaultComputeThreads
		}
		computeThreads.Store(int32(numComputeThreads))
		logger.Log.Info("engine initialized", "compute_threads", numComputeThreads)
	})
}

// ComputeThreads reports the process-wide numeric thread setting.
func ComputeThreads() int {
	if v := computeThreads.Load(); v > 0 {
		return int(v)
	}
	return DefaultComputeThreads
}

var nativeLoader translate.Loader

// RegisterNative installs a native backend loader. Builds that link a real
// inference library call this from an init function; without it Load serves
// the stub.
func RegisterNative(l translate.Loader) {
	nativeLoader = l
}

var supportedDevices = map[string]bool{
	"cpu":   true,
	"cuda":  true,
	"metal": true,
}

// Load opens one engine bound to the given device. It satisfies
// translate.Loader and is the default loader for pool construction.
func Load(modelPath, device string, deviceIndex int) (translate.Engine, error) {
	device = strings.ToLower(device)
	if !supportedDevices[device] {
		return nil, fmt.Errorf("engine: unsupported device %q", device)
	}
	if deviceIndex < 0 {
		return nil, fmt.Errorf("engine: invalid device index %d", deviceIndex)
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("engine: model path: %w", err)
	}

	if nativeLoader != nil {
		return nativeLoader(modelPath, device, deviceIndex)
	}

	logger.Log.Warn("no native backend registered; using stub engine",
		"model_path", modelPath, "device", device, "device_index", deviceIndex)
	return NewStub(modelPath, device, deviceIndex), nil
}
