package main

import "github.com/theirongolddev/ocburn/cmd"

func main() {
	cmd.Execute()
}
