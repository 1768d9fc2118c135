// Command ccnd runs the CCN forwarding daemon.
package main

import (
	"github.com/ccn-go/ccnd/internal/cmd"
)

func main() {
	cmd.Command.Execute()
}
