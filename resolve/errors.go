package resolve

import "errors"

// ErrSourceNotFound indicates that neither the requested file nor any
// placeholder tier resolved to an existing file.
var ErrSourceNotFound = errors.New("resolve: image file was not found")
