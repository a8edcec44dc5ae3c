// Command planbook is the project-plan dashboard: server, client and
// terminal browser.
package main

import "github.com/mesh-intelligence/planbook/internal/cli"

func main() {
	cli.Execute()
}
