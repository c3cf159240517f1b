package main

import "hera/cmd"

func main() {
	cmd.Execute()
}
