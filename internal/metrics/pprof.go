package metrics

import (
	"runtime"
	"strconv"

	"github.com/grafana/pyroscope-go"
)

// PProfConfig is built from config.PyroscopeConfig plus the instance id.
type PProfConfig struct {
	Enabled       bool
	AppInstanceID string
	AppName       string
	ServerAddr    string
	AuthToken     string
	Tags          map[string]string
	ChainID       uint32
	MutexFraction int
	BlockRate     int
}

// InitPProf starts continuous profiling. It returns a nil profiler when disabled.
func InitPProf(cfg *PProfConfig) (*pyroscope.Profiler, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	appName := cfg.AppName
	if appName == "" {
		appName = "ammindexer"
	}

	pTags := map[string]string{
		"instance": cfg.AppInstanceID,
		"chain_id": strconv.FormatUint(uint64(cfg.ChainID), 10),
	}
	for k, v := range cfg.Tags {
		pTags[k] = v
	}

	return pyroscope.Start(pyroscope.Config{
		ApplicationName: appName,
		ServerAddress:   cfg.ServerAddr,
		AuthToken:       cfg.AuthToken,
		Logger:          pyroscope.StandardLogger,
		Tags:            pTags,
		ProfileTypes:    profileTypes(cfg),
	})
}

// profileTypes always samples cpu, heap and goroutines. Mutex and block
// profiles are empty unless the runtime samples them, so they are only
// requested with a non-zero rate.
func profileTypes(cfg *PProfConfig) []pyroscope.ProfileType {
	types := []pyroscope.ProfileType{
		pyroscope.ProfileCPU,

		pyroscope.ProfileAllocObjects,
		pyroscope.ProfileAllocSpace,
		pyroscope.ProfileInuseObjects,
		pyroscope.ProfileInuseSpace,

		pyroscope.ProfileGoroutines,
	}

	if cfg.MutexFraction > 0 {
		runtime.SetMutexProfileFraction(cfg.MutexFraction)
		types = append(types, pyroscope.ProfileMutexCount, pyroscope.ProfileMutexDuration)
	}
	if cfg.BlockRate > 0 {
		runtime.SetBlockProfileRate(cfg.BlockRate)
		types = append(types, pyroscope.ProfileBlockCount, pyroscope.ProfileBlockDuration)
	}

	return types
}
