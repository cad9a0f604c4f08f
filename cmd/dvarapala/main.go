// dvarapala — gatekeeper for a devotional chat community.
// New members are interviewed over DMs, scored, and granted a role.
package main

import "github.com/temple-tools/dvarapala/internal/cli"

func main() {
	cli.Execute()
}
