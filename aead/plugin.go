package aead

import (
	"os"
	"path/filepath"
	"plugin"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// PluginPathEnv names the directory scanned for provider shared libraries.
const PluginPathEnv = "WASMSHIELD_PLUGIN_PATH"

// pluginConstructor is the symbol every plug-in library must export.
const pluginConstructor = "NewProvider"

// Loaded libraries back their registered providers and are retained for the
// process lifetime.
var (
	loadedMu sync.Mutex
	loaded   []*plugin.Plugin
)

// DiscoverPlugins scans the directory named by WASMSHIELD_PLUGIN_PATH for
// shared libraries exporting `NewProvider func() Provider` and registers each
// returned provider. An unset variable is logged at debug level and a
// missing directory as a warning; both end discovery with a nil error.
// Unloadable libraries and wrong symbols are logged as warnings and skipped,
// and their errors are aggregated into the returned error.
func DiscoverPlugins(log *zap.Logger) error {
	ensureBuiltins()
	if log == nil {
		log = zap.NewNop()
	}

	dir := os.Getenv(PluginPathEnv)
	if dir == "" {
		log.Debug("plugin path not set, skipping discovery", zap.String("env", PluginPathEnv))
		return nil
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Warn("plugin directory missing or not a directory", zap.String("dir", dir))
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("cannot read plugin directory", zap.String("dir", dir), zap.Error(err))
		return nil
	}

	var errs error
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".so") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := loadPlugin(path, log); err != nil {
			log.Warn("skipping plugin", zap.String("path", path), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

func loadPlugin(path string, log *zap.Logger) error {
	p, err := plugin.Open(path)
	if err != nil {
		return err
	}

	sym, err := p.Lookup(pluginConstructor)
	if err != nil {
		return err
	}

	ctor, ok := sym.(func() Provider)
	if !ok {
		return &symbolTypeError{path: path}
	}

	provider := ctor()
	Register(provider)

	loadedMu.Lock()
	loaded = append(loaded, p)
	loadedMu.Unlock()

	log.Info("registered AEAD plugin provider",
		zap.String("path", path),
		zap.String("name", provider.Name()))
	return nil
}

type symbolTypeError struct {
	path string
}

func (e *symbolTypeError) Error() string {
	return "plugin " + e.path + ": NewProvider has wrong type, want func() aead.Provider"
}
