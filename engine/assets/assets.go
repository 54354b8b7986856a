package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-gfx/engine/core"
)

var ErrWatcherClosed = errors.New("asset watcher already closed")

type AssetType uint8

const (
	AssetTypeNone AssetType = iota
	AssetTypeShaderSource
	AssetTypeSPIRV
	AssetTypeImage
	AssetTypeFont
)

func (t AssetType) String() string {
	switch t {
	case AssetTypeShaderSource:
		return "shader_source"
	case AssetTypeSPIRV:
		return "spirv"
	case AssetTypeImage:
		return "image"
	case AssetTypeFont:
		return "font"
	default:
		return "none"
	}
}

type AssetInfo struct {
	Path string
	Type AssetType
	// LastLoaded is zero until a loader has read the file.
	LastLoaded time.Time
}

// AssetManager indexes the asset directory and watches it for changes.
// Pipelines are immutable, so a shader rewritten after it was loaded is only
// reported.
type AssetManager struct {
	root   string
	assets map[string]AssetInfo

	mutex sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	root, err := filepath.Abs(assetsDir)
	if err != nil {
		return err
	}
	am.root = root

	if err := am.addRecursive(root); err != nil {
		return err
	}
	go am.start()

	core.LogInfo("watching %d assets under %s", am.Len(), root)
	return nil
}

// Shutdown stops the watcher. It is safe to call more than once.
func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	if am.isClosed {
		am.mutex.Unlock()
		return nil
	}
	am.isClosed = true
	am.mutex.Unlock()

	close(am.done)
	if am.root == "" {
		// never started
		return am.fsnotify.Close()
	}
	<-am.stopped
	return nil
}

func (am *AssetManager) Root() string {
	return am.root
}

// Resolve returns the absolute path of name inside the asset directory.
func (am *AssetManager) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return filepath.Clean(name)
	}
	return filepath.Join(am.root, name)
}

// Lookup returns the index entry of path, which may be absolute or relative to the working directory.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	key, err := filepath.Abs(path)
	if err != nil {
		return AssetInfo{}, false
	}
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[key]
	return info, ok
}

// MarkLoaded records that path has been read. Later writes to it are reported.
func (am *AssetManager) MarkLoaded(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	info, ok := am.assets[key]
	if !ok {
		info = AssetInfo{Path: key, Type: determineAssetType(key)}
	}
	info.LastLoaded = time.Now()
	am.assets[key] = info
}

func (am *AssetManager) Len() int {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return len(am.assets)
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.closed() {
		return ErrWatcherClosed
	}
	return am.watchRecursive(name)
}

func (am *AssetManager) closed() bool {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.isClosed
}

func (am *AssetManager) start() {
	defer close(am.stopped)
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			am.handleEvent(e)

		case e, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", e)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleEvent(e fsnotify.Event) {
	s, err := os.Stat(e.Name)
	if err == nil && s != nil && s.IsDir() {
		if e.Op&fsnotify.Create != 0 {
			if err := am.watchRecursive(e.Name); err != nil {
				core.LogWarn("failed to watch new directory %s: %s", e.Name, err)
			}
		}
		return
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		am.handleFileEvent(e.Name)
	}
	// Can't stat a deleted path, so try to drop it from the watch list either way.
	if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		am.removeAsset(e.Name)
		_ = am.fsnotify.Remove(e.Name)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(path string) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if strings.HasPrefix(fi.Name(), ".") && walkPath != path {
				return filepath.SkipDir
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes a created file or reports a rewrite of a loaded one.
func (am *AssetManager) handleFileEvent(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	assetType := determineAssetType(key)
	if assetType == AssetTypeNone {
		return
	}

	am.mutex.Lock()
	info, exists := am.assets[key]
	if !exists {
		am.assets[key] = AssetInfo{Path: key, Type: assetType}
	}
	am.mutex.Unlock()

	if !exists || info.LastLoaded.IsZero() {
		return
	}
	switch info.Type {
	case AssetTypeShaderSource, AssetTypeSPIRV:
		core.LogWarn("shader %s changed after pipelines were built; restart to use it", key)
	default:
		core.LogInfo("asset %s changed after it was loaded", key)
	}
	ctx := core.EventContext{}
	ctx.Data.S = key
	core.EventFire(core.EVENT_CODE_ASSET_CHANGED, am, ctx)
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	key, err := filepath.Abs(path)
	if err != nil {
		return
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, key)
}

func determineAssetType(path string) AssetType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".vert", ".frag", ".glsl":
		return AssetTypeShaderSource
	case ".spv":
		return AssetTypeSPIRV
	case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff":
		return AssetTypeImage
	case ".fnt":
		return AssetTypeFont
	default:
		return AssetTypeNone
	}
}
