package main

import "github.com/atikulmunna/droidlog/internal/cmd"

func main() {
	cmd.Execute()
}
