// Command ipsentinel is the operator CLI: ad-hoc search, tracked-asset
// management, and schema migrations.
package main

import "github.com/ipsentinel/ipsentinel/internal/interfaces/cli"

func main() {
	cli.Execute()
}
