// package main is the entry point of the sbomfinder CLI
package main

import "github.com/ortelius/sbom-finder-dashboard/cmd"

func main() {
	cmd.Execute()
}
