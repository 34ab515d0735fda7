package output

import (
	"io"
	"os"
)

// ColorMode is the value of the --color flag.
type ColorMode string

// Accepted --color values.
const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// ParseColorMode validates a --color value. The empty string means auto.
func ParseColorMode(value string) (ColorMode, error) {
	switch mode := ColorMode(value); mode {
	case "":
		return ColorAuto, nil
	case ColorAuto, ColorAlways, ColorNever:
		return mode, nil
	default:
		return "", NewUserError("invalid --color value " + `"` + value + `"` + ": use auto, always or never")
	}
}

// Enabled reports whether styling is on. Auto follows isTTY unless
// NO_COLOR is set.
func (m ColorMode) Enabled(isTTY bool) bool {
	switch m {
	case ColorNever:
		return false
	case ColorAlways:
		return true
	default:
		return isTTY && os.Getenv("NO_COLOR") == ""
	}
}

// ResolveColorMode is ParseColorMode followed by Enabled, treating an
// invalid value as auto.
func ResolveColorMode(colorMode string, isTTY bool) bool {
	mode, err := ParseColorMode(colorMode)
	if err != nil {
		mode = ColorAuto
	}
	return mode.Enabled(isTTY)
}

// IsTTY reports whether writer is a terminal. Pipes, files and buffers are not.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
