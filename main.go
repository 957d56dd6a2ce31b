package main

import "browser_scripts/presentation/cli"

func main() {
	cli.Execute()
}
