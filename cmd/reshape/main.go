// Command reshape plans and applies multi-language refactorings.
package main

import "github.com/mamaar/reshape/internal/cli"

func main() {
	cli.Execute()
}
