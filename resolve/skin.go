package resolve

import (
	"path"

	"github.com/jonwraymond/imagecache/config"
)

// Design defaults.
const (
	DefaultArea    = "frontend"
	DefaultPackage = "base"
	DefaultTheme   = "default"
)

// SkinLocator maps a design package and theme to a skin base directory.
type SkinLocator interface {
	SkinBaseDir(pkg, theme string) string
}

// Design locates skins at {SkinRoot}/{Area}/{package}/{theme}.
type Design struct {
	SkinRoot string
	Area     string
}

// SkinBaseDir implements SkinLocator.
func (d Design) SkinBaseDir(pkg, theme string) string {
	area := d.Area
	if area == "" {
		area = DefaultArea
	}
	return path.Join(d.SkinRoot, area, pkg, theme)
}

// currentDesign returns the configured package and theme, defaulting to the
// base package and default theme.
func currentDesign(p config.Provider) (pkg, theme string) {
	pkg, theme = DefaultPackage, DefaultTheme
	if p == nil {
		return pkg, theme
	}
	if v, ok := p.Lookup(config.KeyDesignPackage); ok {
		pkg = v
	}
	if v, ok := p.Lookup(config.KeyDesignTheme); ok {
		theme = v
	}
	return pkg, theme
}

// skinDirs returns the skin directories probed for a placeholder, in order:
// current theme, default theme of the current package, default theme of the
// base package.
func skinDirs(s SkinLocator, p config.Provider) []string {
	pkg, theme := currentDesign(p)
	return []string{
		s.SkinBaseDir(pkg, theme),
		s.SkinBaseDir(pkg, DefaultTheme),
		s.SkinBaseDir(DefaultPackage, DefaultTheme),
	}
}

var _ SkinLocator = Design{}
