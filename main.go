package main

import "github.com/KaramelBytes/trendscope-cli/cmd"

func main() {
	cmd.Execute()
}
