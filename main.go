package main

import "github.com/theirongolddev/azcost/cmd"

func main() {
	cmd.Execute()
}
