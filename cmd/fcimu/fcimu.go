package main

import "github.com/donny0101/Base11-FC/internal/cmd"

func main() {
	cmd.Execute()
}
