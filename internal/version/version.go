package version

import "fmt"

const (
	Version = "v0.1.0"

	colorReset    = "\033[0m"
	colorCyanBold = "\033[36;1m"
)

// asciiArtTpl returns the ASCII art shown by the bundled tools.
func asciiArtTpl() string {
	asciiArt := `
               ___ __
  _________ _ / (_) /____
 / ___/ __ '/ / / __/ _ \
/ /__/ /_/ / / / /_/  __/
\___/\__, /_/_/\__/\___/
       /_/
%s ` + Version + `
A direct SQLite binding for Go with a shell and a benchmark harness`

	asciiArt = asciiArt[1:]                          // This just removes the first newline character
	asciiArt = colorCyanBold + asciiArt + colorReset // Add color to the ASCII art

	return asciiArt
}

// ShellVersion returns the version banner of the cqlite shell.
func ShellVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Shell")
}

// BenchVersion returns the version banner of cqlitebench.
func BenchVersion() string {
	return fmt.Sprintf(asciiArtTpl(), "Bench")
}
