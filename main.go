package main

import "github.com/Layr-Labs/logscope/cmd"

func main() {
	cmd.Execute()
}
