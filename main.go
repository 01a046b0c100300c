// The main package for the hirewatch executable.
package main

import (
	"github.com/talentsignal/hirewatch/cmd"
)

func main() {
	cmd.Execute()
}
