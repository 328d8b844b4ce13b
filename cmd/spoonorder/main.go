// spoonorder - reorders the helper mesh (spoon) sections of sliced gcode
//
// Usage:
//   spoonorder [flags] FILE.gcode [FILE.gcode ...]
//
// Build:
//   go build -o spoonorder ./cmd/spoonorder
//
// Cross-compile:
//   GOOS=windows GOARCH=amd64 go build -o spoonorder.exe ./cmd/spoonorder
//   GOOS=darwin  GOARCH=arm64 go build -o spoonorder-darwin ./cmd/spoonorder

package main

import (
	"os"

	"github.com/piwi3910/spoonorder/internal/cli"
)

func main() {
	app := cli.NewApp(os.Stdout, os.Stderr)
	os.Exit(app.Run(os.Args[1:]))
}
