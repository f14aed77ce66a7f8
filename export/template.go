package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Template expands an output filename pattern. Supported tokens:
//
//	{original_filename}  source name without extension
//	{sequence}           1-based export counter, zero padded to 4
//	{YYYY} {MM} {DD}     export date
//	{hh} {mm}            export time
//
// Unknown tokens pass through verbatim. The extension for the chosen
// format is appended by Filename.
type Template string

// DefaultTemplate names exports after their source file.
const DefaultTemplate Template = "{original_filename}"

// Expand substitutes the tokens. sourcePath is the original file path,
// sequence the 1-based export counter.
func (t Template) Expand(sourcePath string, sequence int, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	r := strings.NewReplacer(
		"{original_filename}", base,
		"{sequence}", fmt.Sprintf("%04d", sequence),
		"{YYYY}", now.Format("2006"),
		"{MM}", now.Format("01"),
		"{DD}", now.Format("02"),
		"{hh}", now.Format("15"),
		"{mm}", now.Format("04"),
	)
	return r.Replace(string(t))
}

// Filename expands the template and appends the format extension.
func (t Template) Filename(sourcePath string, sequence int, now time.Time, format Format) string {
	name := t.Expand(sourcePath, sequence, now)
	switch format {
	case FormatJPEG:
		return name + ".jpg"
	case FormatPNG:
		return name + ".png"
	case FormatTIFF:
		return name + ".tif"
	}
	return name
}
