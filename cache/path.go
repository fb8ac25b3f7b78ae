package cache

import "strings"

// pathSeparator joins cache path segments regardless of host OS.
const pathSeparator = "/"

// cacheSegment is the literal directory under the base holding derivatives.
const cacheSegment = "cache"

// PathParams identifies one derivative on disk.
type PathParams struct {
	BaseDir      string
	StoreID      string
	Destination  string
	Width        int
	Height       int
	Key          Key
	RelativePath string
}

// PathResolver composes derivative paths. The zero value is ready to use.
type PathResolver struct{}

// NewPathResolver creates a path resolver.
func NewPathResolver() *PathResolver {
	return &PathResolver{}
}

// Resolve returns the derivative path for p. The relative path is appended
// after the key, keeping its sub-directories and extension.
func (r *PathResolver) Resolve(p PathParams) string {
	segments := []string{
		strings.TrimRight(p.BaseDir, pathSeparator),
		cacheSegment,
		p.StoreID,
		p.Destination,
	}
	if dims := (TransformSpec{Width: p.Width, Height: p.Height}).Dimensions(); dims != "" {
		segments = append(segments, dims)
	}
	segments = append(segments, string(p.Key))

	rel := p.RelativePath
	if rel != "" && !strings.HasPrefix(rel, pathSeparator) {
		rel = pathSeparator + rel
	}

	return strings.Join(segments, pathSeparator) + rel
}
