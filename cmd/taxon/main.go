// Command taxon resolves label taxonomies from the command line.
package main

import "github.com/mesh-intelligence/taxon/internal/cli"

func main() {
	cli.Execute()
}
