// The main package for the releasepass worker executable.
package main

import (
	"github.com/proximodev/releasepass/cmd"
)

func main() {
	cmd.Execute()
}
